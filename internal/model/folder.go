package model

// Permission is the kind of access being requested on a file or folder.
type Permission string

const (
	PermissionRead        Permission = "read"
	PermissionEdit        Permission = "edit"
	PermissionAddChildren Permission = "add_children"
)

// Principal is the identity a request acts as. It is deliberately minimal:
// authentication itself happens upstream and only its outcome is consumed
// here.
type Principal struct {
	UserID        string
	Authenticated bool
	Superuser     bool
}

// Folder is the narrow contract the file layer needs from the folder tree:
// permission delegation and ancestry for breadcrumbs.
type Folder interface {
	Label() string
	HasPermission(p Principal, perm Permission) bool
	Ancestors() []Folder
}

// UnsortedFolder is the synthetic folder files without a folder reference
// logically belong to. It grants nothing and has no ancestry.
type UnsortedFolder struct{}

func (UnsortedFolder) Label() string { return "unsorted" }
func (UnsortedFolder) HasPermission(Principal, Permission) bool { return false }
func (UnsortedFolder) Ancestors() []Folder { return nil }

// LogicalFolder resolves the folder a file is displayed under: its real
// folder when resolved, the unsorted folder otherwise.
func LogicalFolder(f *File, folder Folder) Folder {
	if f.FolderID == nil || folder == nil {
		return UnsortedFolder{}
	}
	return folder
}

// LogicalPath is the breadcrumb trail for a file: the folder's ancestors
// followed by the logical folder itself.
func LogicalPath(f *File, folder Folder) []Folder {
	logical := LogicalFolder(f, folder)
	trail := append([]Folder{}, logical.Ancestors()...)
	return append(trail, logical)
}
