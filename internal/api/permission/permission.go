// Package permission holds the role and ownership predicates. They are pure
// functions of the acting user and the target's author so both the route
// wiring and the services can share them.
package permission

import "reviewhub/internal/api/models"

// CanWriteCatalog gates mutations on categories, genres and titles: reads
// are open to everyone, writes need an admin.
func CanWriteCatalog(actor *models.User) bool {
	return actor != nil && actor.IsAdmin()
}

// CanManageUsers gates the /users endpoints (except /users/me).
func CanManageUsers(actor *models.User) bool {
	return actor != nil && actor.IsAdmin()
}

// CanModifyFeedback decides update/delete on a review or comment: the
// author, a moderator or an admin. Reads never come through here.
func CanModifyFeedback(actor *models.User, authorID string) bool {
	if actor == nil {
		return false
	}
	return actor.ID == authorID || actor.IsModerator() || actor.IsAdmin()
}
