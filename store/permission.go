package store

import (
	"fmt"
	"strings"
)

// PermissionKind enumerates the access grants an API key can carry.
type PermissionKind int

const (
	// PermAll grants every operation.
	PermAll PermissionKind = iota
	// PermFilesRead grants read access to file text and search.
	PermFilesRead
	// PermTagsRead grants read access to tag listings.
	PermTagsRead
	// PermTag grants access to files carrying one specific tag.
	PermTag
)

// Permission is a tagged variant: TagID is only meaningful for PermTag.
type Permission struct {
	Kind  PermissionKind
	TagID string
}

// ParsePermission parses a single serialized permission token.
func ParsePermission(token string) (Permission, error) {
	token = strings.TrimSpace(token)
	switch {
	case token == "all":
		return Permission{Kind: PermAll}, nil
	case token == "files:read":
		return Permission{Kind: PermFilesRead}, nil
	case token == "tags:read":
		return Permission{Kind: PermTagsRead}, nil
	case strings.HasPrefix(token, "tag:"):
		id := strings.TrimPrefix(token, "tag:")
		if id == "" {
			return Permission{}, fmt.Errorf("permission %q: missing tag id", token)
		}
		return Permission{Kind: PermTag, TagID: id}, nil
	default:
		return Permission{}, fmt.Errorf("unknown permission %q", token)
	}
}

// String serializes the permission back to its token form.
func (p Permission) String() string {
	switch p.Kind {
	case PermAll:
		return "all"
	case PermFilesRead:
		return "files:read"
	case PermTagsRead:
		return "tags:read"
	case PermTag:
		return "tag:" + p.TagID
	default:
		return ""
	}
}

// ParsePermissions parses a comma-joined permission list, skipping empty
// segments. Unknown tokens fail the whole list.
func ParsePermissions(joined string) ([]Permission, error) {
	var perms []Permission
	for _, token := range strings.Split(joined, ",") {
		if strings.TrimSpace(token) == "" {
			continue
		}
		p, err := ParsePermission(token)
		if err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, nil
}

// JoinPermissions serializes a permission list to its stored comma-joined form.
func JoinPermissions(perms []Permission) string {
	tokens := make([]string, 0, len(perms))
	for _, p := range perms {
		tokens = append(tokens, p.String())
	}
	return strings.Join(tokens, ",")
}

// Allows reports whether the permission set grants the requested kind.
// PermAll grants everything.
func Allows(perms []Permission, kind PermissionKind) bool {
	for _, p := range perms {
		if p.Kind == PermAll || p.Kind == kind {
			return true
		}
	}
	return false
}
