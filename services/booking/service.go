package booking

import (
	"context"
	"fmt"
	"time"

	"chicha-platform/pkg/db/option"
	"chicha-platform/pkg/errutil"
	"chicha-platform/pkg/repository"
	"chicha-platform/pkg/sequence"
	"chicha-platform/services/notification"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db      *gorm.DB
	node    *snowflake.Node
	seq     sequence.Generator
	emitter notification.Emitter
	store   repository.Repository[RepairBooking]
}

type ServiceParams struct {
	fx.In

	DB      *gorm.DB
	Node    *snowflake.Node
	Seq     sequence.Generator
	Emitter notification.Emitter
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:      p.DB,
		node:    p.Node,
		seq:     p.Seq,
		emitter: p.Emitter,
		store:   repository.ProvideStore[RepairBooking](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, params CreateBookingParams) (*RepairBooking, error) {
	if params.UserID == "" {
		return nil, errutil.Unauthorized("user identity is required", nil)
	}
	if params.ScheduledAt.Before(time.Now()) {
		return nil, errutil.BadRequest("scheduled_at must be in the future", nil)
	}

	code, err := s.seq.NextBookingCode(ctx)
	if err != nil {
		return nil, errutil.Internal("failed to generate booking code", err)
	}

	booking := &RepairBooking{
		BookingID:        s.node.Generate().String(),
		BookingCode:      code,
		UserID:           params.UserID,
		DeviceBrand:      params.DeviceBrand,
		DeviceModel:      params.DeviceModel,
		IssueDescription: params.IssueDescription,
		ScheduledAt:      params.ScheduledAt,
		Status:           StatusPending,
	}

	if err := s.store.Create(ctx, booking); err != nil {
		return nil, errutil.Internal("failed to create booking", err)
	}

	s.notify(ctx, booking, "booking_created",
		"Booking servis dibuat",
		fmt.Sprintf("Booking %s untuk %s %s menunggu konfirmasi.", booking.BookingCode, booking.DeviceBrand, booking.DeviceModel),
	)

	return booking, nil
}

func (s *Service) GetByID(ctx context.Context, bookingID string) (*RepairBooking, error) {
	booking, err := s.store.FindOne(ctx, &RepairBooking{BookingID: bookingID})
	if err != nil {
		return nil, errutil.Internal("failed to fetch booking", err)
	}
	if booking == nil {
		return nil, errutil.NotFound("booking not found", nil)
	}
	return booking, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]*RepairBooking, error) {
	bookings, err := s.store.Find(ctx, &RepairBooking{UserID: userID}, option.WithSortBy(option.QuerySortBy{}))
	if err != nil {
		return nil, errutil.Internal("failed to list bookings", err)
	}
	return bookings, nil
}

type SetStatusParams struct {
	Status         Status `json:"status" binding:"required"`
	TechnicianNote string `json:"technician_note"`
	CancelReason   string `json:"cancel_reason"`
}

func (s *Service) SetStatus(ctx context.Context, bookingID string, params SetStatusParams) (*RepairBooking, error) {
	if !ValidStatus(params.Status) {
		return nil, errutil.BadRequest("unknown booking status", nil)
	}

	booking, err := s.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status == params.Status {
		return booking, nil
	}

	if !CanTransition(booking.Status, params.Status) {
		return nil, errutil.Conflict(
			fmt.Sprintf("cannot transition booking from %s to %s", booking.Status, params.Status), nil)
	}

	updates := map[string]any{"status": params.Status}
	if params.TechnicianNote != "" {
		updates["technician_note"] = params.TechnicianNote
	}
	if params.Status == StatusCancelled {
		updates["cancel_reason"] = params.CancelReason
	}

	if err := s.store.Update(ctx, booking.BookingID, updates); err != nil {
		return nil, errutil.Internal("failed to update booking status", err)
	}

	booking.Status = params.Status
	if params.TechnicianNote != "" {
		booking.TechnicianNote = params.TechnicianNote
	}
	if params.Status == StatusCancelled {
		booking.CancelReason = params.CancelReason
	}

	s.notifyStatusChange(ctx, booking)

	return booking, nil
}

func (s *Service) notifyStatusChange(ctx context.Context, booking *RepairBooking) {
	var title, body string
	switch booking.Status {
	case StatusConfirmed:
		title = "Booking dikonfirmasi"
		body = fmt.Sprintf("Booking %s dijadwalkan pada %s.", booking.BookingCode, booking.ScheduledAt.Format("02 Jan 2006 15:04"))
	case StatusInProgress:
		title = "Servis sedang dikerjakan"
		body = fmt.Sprintf("Perangkat pada booking %s sedang dalam pengerjaan.", booking.BookingCode)
	case StatusDone:
		title = "Servis selesai"
		body = fmt.Sprintf("Booking %s selesai. Perangkat siap diambil.", booking.BookingCode)
	case StatusCancelled:
		title = "Booking dibatalkan"
		body = fmt.Sprintf("Booking %s dibatalkan.", booking.BookingCode)
		if booking.CancelReason != "" {
			body = fmt.Sprintf("Booking %s dibatalkan: %s.", booking.BookingCode, booking.CancelReason)
		}
	default:
		return
	}

	s.notify(ctx, booking, "booking_"+string(booking.Status), title, body)
}

func (s *Service) notify(ctx context.Context, booking *RepairBooking, kind, title, body string) {
	if s.emitter == nil {
		return
	}
	if err := s.emitter.Emit(ctx, notification.Message{
		UserID:   booking.UserID,
		Kind:     kind,
		Title:    title,
		Body:     body,
		Metadata: map[string]string{"booking_code": booking.BookingCode},
	}); err != nil {
		zap.L().Warn("failed to emit booking notification",
			zap.String("booking_code", booking.BookingCode), zap.Error(err))
	}
}
