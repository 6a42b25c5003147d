package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleDoctor          = "doctor"
	RoleNurse           = "nurse"
	RoleFrontDesk       = "front_desk"
	RolePharmacist      = "pharmacist"
	RolePatient         = "patient"
	RoleSuperAdmin      = "super_admin"
	RoleSupportEngineer = "support_engineer" // hidden role
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }

func IsHiddenRole(role string) bool { return role == RoleSupportEngineer }

// CallCapableRoles are the roles allowed to initiate telemedicine calls.
// Patients may receive calls but never start them through this API.
func CallCapableRoles() []string {
	return []string{RoleDoctor, RoleNurse, RoleFrontDesk}
}
