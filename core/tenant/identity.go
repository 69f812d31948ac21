package tenant

// Identity is what the authentication layer knows about the caller.
type Identity struct {
	UserID       string
	Roles        []string
	SchoolID     string
	BranchID     string
	IsSuperAdmin bool
}

// FromIdentity derives the tenant Context of an authenticated caller.
//
// The identity's school always wins. `headerSchoolID` is only used when the identity
// carries no school and the caller is a super-admin picking a school to operate on.
func FromIdentity(id Identity, headerSchoolID string) Context {
	tc := Context{
		SchoolID:     id.SchoolID,
		BranchID:     id.BranchID,
		IsSuperAdmin: id.IsSuperAdmin,
		UserID:       id.UserID,
	}
	if tc.SchoolID == "" && id.IsSuperAdmin {
		tc.SchoolID = headerSchoolID
	}
	return tc
}
