package dto

import "document-qa-be/internal/entity"

type ListNotificationsResponse struct {
	Notifications []*entity.Notification `json:"notifications"`
}
