package config

import "strings"

// PublicTags is the fixed public tag taxonomy.
var PublicTags = []string{
	"abstract",
	"animals",
	"anime",
	"architecture",
	"art",
	"cars",
	"city",
	"cyberpunk",
	"dark",
	"fantasy",
	"games",
	"landscape",
	"light",
	"minimal",
	"movies",
	"music",
	"nature",
	"night",
	"pixel",
	"retro",
	"sci-fi",
	"seasonal",
	"space",
	"sports",
	"technology",
	"underwater",
	"vaporwave",
}

// AllowedTags returns the lower-cased union of PublicTags and the names of
// local. Only tags in this set are indexed.
func AllowedTags(local []LocalTag) map[string]struct{} {
	allowed := make(map[string]struct{}, len(PublicTags)+len(local))
	for _, tag := range PublicTags {
		allowed[strings.ToLower(tag)] = struct{}{}
	}
	for _, tag := range local {
		if name := strings.ToLower(strings.TrimSpace(tag.Name)); name != "" {
			allowed[name] = struct{}{}
		}
	}
	return allowed
}
