package booking

import (
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusCancelled  Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusDone},
	StatusDone:       {},
	StatusCancelled:  {},
}

func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type RepairBooking struct {
	BookingID        string    `gorm:"column:booking_id;primaryKey" json:"booking_id"`
	BookingCode      string    `gorm:"column:booking_code;uniqueIndex" json:"booking_code"`
	UserID           string    `gorm:"column:user_id;index" json:"user_id"`
	DeviceBrand      string    `gorm:"column:device_brand" json:"device_brand"`
	DeviceModel      string    `gorm:"column:device_model" json:"device_model"`
	IssueDescription string    `gorm:"column:issue_description" json:"issue_description"`
	ScheduledAt      time.Time `gorm:"column:scheduled_at" json:"scheduled_at"`
	Status           Status    `gorm:"column:status" json:"status"`
	TechnicianNote   string    `gorm:"column:technician_note" json:"technician_note,omitempty"`
	CancelReason     string    `gorm:"column:cancel_reason" json:"cancel_reason,omitempty"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (RepairBooking) TableName() string {
	return "repair_bookings"
}

type CreateBookingParams struct {
	UserID           string    `json:"-"`
	DeviceBrand      string    `json:"device_brand" binding:"required"`
	DeviceModel      string    `json:"device_model" binding:"required"`
	IssueDescription string    `json:"issue_description" binding:"required"`
	ScheduledAt      time.Time `json:"scheduled_at" binding:"required"`
}
