// Package directory exposes account data (friends, groups, profiles) from
// MySQL to the realtime hub behind the services.UserDirectory interface.
package directory

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"webchat/models"
)

type Directory struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// FriendIDs returns the other side of every accepted friendship of userID.
func (d *Directory) FriendIDs(ctx context.Context, userID int) ([]int, error) {
	var friendships []models.Friendship
	err := d.db.WithContext(ctx).
		Where("(sender_id = ? OR receiver_id = ?) AND status = ?", userID, userID, models.FriendshipAccepted).
		Find(&friendships).Error
	if err != nil {
		return nil, errors.Wrap(err, "query friendships")
	}
	ids := make([]int, 0, len(friendships))
	for _, f := range friendships {
		if int(f.SenderID) == userID {
			ids = append(ids, int(f.ReceiverID))
		} else {
			ids = append(ids, int(f.SenderID))
		}
	}
	return ids, nil
}

// GroupIDs returns the ids of every group the user is a member of.
func (d *Directory) GroupIDs(ctx context.Context, userID int) ([]int, error) {
	var ids []int
	err := d.db.WithContext(ctx).
		Model(&models.GroupMember{}).
		Where("user_id = ?", userID).
		Pluck("group_id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "query group memberships")
	}
	return ids, nil
}

// UsersByID resolves user ids to their current public profile.
func (d *Directory) UsersByID(ctx context.Context, ids []int) (map[int]models.PublicUser, error) {
	result := make(map[int]models.PublicUser, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var users []models.User
	err := d.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&users).Error
	if err != nil {
		return nil, errors.Wrap(err, "query users")
	}
	for i := range users {
		u := users[i].Public()
		u.Email = "" // history enrichment never leaks emails
		result[int(users[i].ID)] = u
	}
	return result, nil
}
