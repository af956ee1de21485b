package services

import "github.com/proofpay/backend/internal/models"

// Role identifies who is invoking a workflow operation.
type Role string

const (
	RoleFreelancer Role = "freelancer"
	RoleClient     Role = "client"
	RoleAdmin      Role = "admin"
	// RoleSystem is used for transitions triggered by internal events
	// (payment confirmations), never by a direct user request.
	RoleSystem Role = "system"
)

// Actor is the authenticated identity invoking an operation. Every core
// operation takes an explicit Actor so authorization is a pure function of
// its inputs; nothing reads ambient session state.
type Actor struct {
	Role   Role
	UserID uint   // set for freelancer/admin actors
	Email  string // set for client actors
}

// FreelancerActor builds an actor for an authenticated platform user.
func FreelancerActor(userID uint, email string) Actor {
	return Actor{Role: RoleFreelancer, UserID: userID, Email: email}
}

// ClientActor builds an actor for an anonymous share-link client.
func ClientActor(email string) Actor {
	return Actor{Role: RoleClient, Email: email}
}

// AdminActor builds an actor with admin privileges.
func AdminActor(userID uint, email string) Actor {
	return Actor{Role: RoleAdmin, UserID: userID, Email: email}
}

// SystemActor is the internal event actor.
var SystemActor = Actor{Role: RoleSystem}

// IsAdmin reports whether the actor bypasses ownership checks. Admins are
// never exempt from state-machine legality.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// OwnsProject reports whether the actor is the project's freelancer owner.
func (a Actor) OwnsProject(p *models.Project) bool {
	return a.Role == RoleFreelancer && a.UserID == p.FreelancerID
}

// MatchesClient reports whether the actor is the project's client.
func (a Actor) MatchesClient(p *models.Project) bool {
	return a.Role == RoleClient && a.Email != "" && a.Email == p.ClientEmail
}

// CanView reports whether the actor may read the project and its comments.
func (a Actor) CanView(p *models.Project) bool {
	return a.IsAdmin() || a.OwnsProject(p) || a.MatchesClient(p) || a.Role == RoleSystem
}

// DisplayName renders the actor for audit records.
func (a Actor) DisplayName() string {
	switch a.Role {
	case RoleSystem:
		return "system"
	case RoleClient:
		return "client:" + a.Email
	default:
		return string(a.Role) + ":" + a.Email
	}
}
