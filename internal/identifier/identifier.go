// Package identifier encodes and decodes background identifiers.
//
// An identifier names a background folder under one of the storage roots:
//
//	<folder>                  primary root
//	default::<folder>         legacy default root
//	ext::<index>::<folder>    external root at position index
package identifier

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

const (
	defaultPrefix = "default::"
	extPrefix     = "ext::"
	sep           = "::"
)

var (
	// ErrInvalid is returned by Decode for malformed identifiers.
	ErrInvalid = errors.New("invalid background identifier")
	// ErrUnknownRoot is returned when an identifier or root reference names
	// a root that is not configured.
	ErrUnknownRoot = errors.New("unknown storage root")
)

// ID is an opaque background identifier.
type ID string

func (id ID) String() string { return string(id) }

// Kind identifies which storage root an identifier lives under.
type Kind int

const (
	KindPrimary Kind = iota
	KindDefault
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindPrimary:
		return "primary"
	case KindDefault:
		return "default"
	case KindExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Location is a decoded identifier.
type Location struct {
	Kind Kind
	// Index is the position in the external root list. Only meaningful for
	// KindExternal.
	Index  int
	Folder string
}

// Root returns the reference to the root this location lives under.
func (l Location) Root() RootRef {
	return RootRef{Kind: l.Kind, Index: l.Index}
}

// Encode builds the identifier for loc.
func Encode(loc Location) ID {
	switch loc.Kind {
	case KindDefault:
		return ID(defaultPrefix + loc.Folder)
	case KindExternal:
		return ID(extPrefix + strconv.Itoa(loc.Index) + sep + loc.Folder)
	default:
		return ID(loc.Folder)
	}
}

// Decode splits id into its root and folder.
func Decode(id ID) (Location, error) {
	s := string(id)
	var loc Location

	switch {
	case strings.HasPrefix(s, defaultPrefix):
		loc = Location{Kind: KindDefault, Folder: strings.TrimPrefix(s, defaultPrefix)}
	case strings.HasPrefix(s, extPrefix):
		rest := strings.TrimPrefix(s, extPrefix)
		idx, folder, ok := strings.Cut(rest, sep)
		if !ok {
			return Location{}, fmt.Errorf("%w: %q has no folder", ErrInvalid, s)
		}
		n, err := strconv.Atoi(idx)
		if err != nil || n < 0 {
			return Location{}, fmt.Errorf("%w: %q has bad root index", ErrInvalid, s)
		}
		loc = Location{Kind: KindExternal, Index: n, Folder: folder}
	default:
		loc = Location{Kind: KindPrimary, Folder: s}
	}

	if err := validFolder(loc.Folder); err != nil {
		return Location{}, fmt.Errorf("%w: %q: %v", ErrInvalid, s, err)
	}
	return loc, nil
}

func validFolder(folder string) error {
	switch {
	case folder == "":
		return errors.New("empty folder")
	case folder == "." || folder == "..":
		return errors.New("relative folder")
	case strings.ContainsAny(folder, `/\`):
		return errors.New("folder contains a path separator")
	}
	return nil
}

// Folder returns the relative folder name of id, or the raw id if it does
// not decode.
func Folder(id ID) string {
	loc, err := Decode(id)
	if err != nil {
		return string(id)
	}
	return loc.Folder
}

var suffixRe = regexp.MustCompile(`_\d+$`)

// BaseName returns the folder name with any trailing _<N> disambiguation
// suffix removed: "ext::0::sunset_2" -> "sunset".
func BaseName(id ID) string {
	folder := Folder(id)
	if base := suffixRe.ReplaceAllString(folder, ""); base != "" {
		return base
	}
	return folder
}

// Roots is the set of configured storage roots.
type Roots struct {
	Primary string
	// Default is the legacy default root. Empty unless the primary root has
	// been moved away from the default location.
	Default  string
	External []string
}

// RootDir returns the directory of the root ref names.
func (r Roots) RootDir(ref RootRef) (string, error) {
	switch ref.Kind {
	case KindPrimary:
		if r.Primary == "" {
			return "", fmt.Errorf("%w: primary", ErrUnknownRoot)
		}
		return r.Primary, nil
	case KindDefault:
		if r.Default == "" {
			return "", fmt.Errorf("%w: default", ErrUnknownRoot)
		}
		return r.Default, nil
	case KindExternal:
		if ref.Index < 0 || ref.Index >= len(r.External) {
			return "", fmt.Errorf("%w: %s", ErrUnknownRoot, ref)
		}
		return r.External[ref.Index], nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownRoot, ref)
}

// Dir resolves the absolute folder path of loc.
func (r Roots) Dir(loc Location) (string, error) {
	root, err := r.RootDir(loc.Root())
	if err != nil {
		return "", err
	}
	return filepath.Join(root, loc.Folder), nil
}

// Resolve decodes id and resolves its folder path.
func (r Roots) Resolve(id ID) (string, error) {
	loc, err := Decode(id)
	if err != nil {
		return "", err
	}
	return r.Dir(loc)
}

// Refs returns every configured root in scan order: primary, default (if
// set), then each external root.
func (r Roots) Refs() []RootRef {
	refs := []RootRef{{Kind: KindPrimary}}
	if r.Default != "" {
		refs = append(refs, RootRef{Kind: KindDefault})
	}
	for i := range r.External {
		refs = append(refs, RootRef{Kind: KindExternal, Index: i})
	}
	return refs
}

// RootRef names a storage root: "primary", "default" or "ext:<n>".
type RootRef struct {
	Kind  Kind
	Index int
}

func (r RootRef) String() string {
	switch r.Kind {
	case KindPrimary:
		return "primary"
	case KindDefault:
		return "default"
	default:
		return "ext:" + strconv.Itoa(r.Index)
	}
}

// ParseRootRef parses the textual form produced by RootRef.String.
func ParseRootRef(s string) (RootRef, error) {
	switch s = strings.ToLower(strings.TrimSpace(s)); {
	case s == "primary":
		return RootRef{Kind: KindPrimary}, nil
	case s == "default":
		return RootRef{Kind: KindDefault}, nil
	case strings.HasPrefix(s, "ext:"):
		n, err := strconv.Atoi(strings.TrimPrefix(s, "ext:"))
		if err != nil || n < 0 {
			return RootRef{}, fmt.Errorf("%w: %q", ErrUnknownRoot, s)
		}
		return RootRef{Kind: KindExternal, Index: n}, nil
	}
	return RootRef{}, fmt.Errorf("%w: %q", ErrUnknownRoot, s)
}
