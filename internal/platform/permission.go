package platform

import "context"

// PermissionRequest mirrors the host's ask({permission, patterns, metadata})
// surface (see spec §6.1): a capability name, the relative paths it would
// touch, and free-form metadata for the host to render to the user.
type PermissionRequest struct {
	Permission string
	Patterns   []string
	Metadata   map[string]string
}

// PermissionAsker stands in for the host tool-execution context's
// permission-prompt mechanism. The artifact writer calls it before any write.
type PermissionAsker interface {
	Ask(ctx context.Context, req PermissionRequest) (bool, error)
}

// AlwaysAllow grants every request unconditionally. Appropriate for the CLI
// entry points in this repo, which write only under their own output tree;
// a host embedding this engine as a plugin would supply a real asker instead.
type AlwaysAllow struct{}

func (AlwaysAllow) Ask(context.Context, PermissionRequest) (bool, error) {
	return true, nil
}

// DenyAll refuses every request. Useful in tests asserting that the artifact
// writer leaves prior state intact on permission denial.
type DenyAll struct{}

func (DenyAll) Ask(context.Context, PermissionRequest) (bool, error) {
	return false, nil
}
