package notification

import (
	"context"
	"encoding/json"
	"testing"

	"chicha-platform/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	db := testutil.NewTestDB(t, &Notification{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParams{DB: db, Node: node})
}

func TestRecordAndList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Record(ctx, Message{
		UserID: "user-1",
		Kind:   "payment_received",
		Title:  "Pembayaran diterima",
		Body:   "Pembayaran untuk pesanan ORD-001 telah kami terima.",
		Metadata: map[string]string{
			"order_code": "ORD-001",
		},
	})
	require.NoError(t, err)

	_, err = svc.Record(ctx, Message{UserID: "user-2", Kind: "payment_received"})
	require.NoError(t, err)

	notifications, err := svc.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	require.Equal(t, "payment_received", notifications[0].Kind)
	require.Nil(t, notifications[0].ReadAt)
}

func TestMarkRead(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	n, err := svc.Record(ctx, Message{UserID: "user-1", Kind: "order_shipped"})
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(ctx, n.NotificationID, "user-1"))

	// already read, and wrong user both come back not found
	require.Error(t, svc.MarkRead(ctx, n.NotificationID, "user-1"))
	require.Error(t, svc.MarkRead(ctx, n.NotificationID, "user-2"))

	notifications, err := svc.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, notifications[0].ReadAt)
}

func TestHandleSendTaskPersists(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	payload, err := json.Marshal(Message{
		UserID: "user-1",
		Kind:   "booking_confirmed",
		Title:  "Booking dikonfirmasi",
	})
	require.NoError(t, err)

	task := asynq.NewTask("notification:send", payload)
	require.NoError(t, svc.HandleSendTask(ctx, task))

	notifications, err := svc.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	require.Equal(t, "booking_confirmed", notifications[0].Kind)
}
