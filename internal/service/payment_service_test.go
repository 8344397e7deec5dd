package service

import (
	"context"
	"crypto/sha512"
	"database/sql"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhive/tutorhive-api/internal/models"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
	"github.com/tutorhive/tutorhive-api/pkg/jobs"
	"github.com/tutorhive/tutorhive-api/pkg/storage"
)

type mockPaymentRepo struct {
	payments     map[string]models.PaymentDetail
	receiptPaths map[string]string
	overdue      int64
}

func (m *mockPaymentRepo) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error) {
	if filter.Page > 1 {
		return nil, len(m.payments), nil
	}
	payments := make([]models.PaymentDetail, 0, len(m.payments))
	for _, p := range m.payments {
		payments = append(payments, p)
	}
	return payments, len(payments), nil
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, teacherID, id string) (*models.PaymentDetail, error) {
	if p, ok := m.payments[id]; ok && p.TeacherID == teacherID {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPaymentRepo) FindByGatewayRef(ctx context.Context, ref string) (*models.Payment, error) {
	for _, p := range m.payments {
		if p.GatewayRef != nil && *p.GatewayRef == ref {
			payment := p.Payment
			return &payment, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	if m.payments == nil {
		m.payments = make(map[string]models.PaymentDetail)
	}
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	m.payments[payment.ID] = models.PaymentDetail{Payment: *payment}
	return nil
}

func (m *mockPaymentRepo) Update(ctx context.Context, payment *models.Payment) error {
	detail := m.payments[payment.ID]
	detail.Payment = *payment
	m.payments[payment.ID] = detail
	return nil
}

func (m *mockPaymentRepo) SetReceiptPath(ctx context.Context, id, path string) error {
	if m.receiptPaths == nil {
		m.receiptPaths = make(map[string]string)
	}
	m.receiptPaths[id] = path
	return nil
}

func (m *mockPaymentRepo) MarkOverdue(ctx context.Context, teacherID string, asOf time.Time) (int64, error) {
	return m.overdue, nil
}

type mockPaymentStudentRepo struct {
	students map[string]models.StudentDetail
}

func (m *mockPaymentStudentRepo) FindByID(ctx context.Context, teacherID, id string) (*models.StudentDetail, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockSnapGateway struct {
	requests []*snap.Request
}

func (m *mockSnapGateway) CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error) {
	m.requests = append(m.requests, req)
	return &snap.Response{RedirectURL: "https://checkout.example/session"}, nil
}

type mockReceiptQueue struct {
	jobs []jobs.Job
}

func (m *mockReceiptQueue) Enqueue(job jobs.Job) error {
	m.jobs = append(m.jobs, job)
	return nil
}

type mockReceiptStore struct {
	saved map[string][]byte
}

func (m *mockReceiptStore) Save(filename string, data []byte) (string, error) {
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	m.saved[filename] = data
	return filename, nil
}

func paymentFixture(status models.PaymentStatus) (*PaymentService, *mockPaymentRepo, *mockReceiptQueue, *mockReceiptStore) {
	gatewayRef := "inv-existing"
	repo := &mockPaymentRepo{payments: map[string]models.PaymentDetail{
		"pay-1": {
			Payment: models.Payment{
				ID:          "pay-1",
				TeacherID:   "teacher-1",
				StudentID:   "student-1",
				Description: "March lessons",
				AmountCents: 250000,
				Currency:    "IDR",
				Status:      status,
				GatewayRef:  &gatewayRef,
			},
			StudentName: "Sam Student",
		},
	}}
	students := &mockPaymentStudentRepo{students: map[string]models.StudentDetail{
		"student-1": {Student: models.Student{ID: "student-1", TeacherID: "teacher-1", FullName: "Sam Student", Email: "sam@example.com"}},
	}}
	queue := &mockReceiptQueue{}
	store := &mockReceiptStore{}
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewPaymentService(repo, students, &mockSnapGateway{}, true, testServerKey, queue, store, signer, nil, nil)
	return svc, repo, queue, store
}

const testServerKey = "server-key-test"

func signedNotification(orderID, status string) GatewayNotification {
	statusCode := "200"
	grossAmount := "2500.00"
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + testServerKey))
	return GatewayNotification{
		OrderID:           orderID,
		TransactionStatus: status,
		StatusCode:        statusCode,
		GrossAmount:       grossAmount,
		SignatureKey:      hex.EncodeToString(sum[:]),
	}
}

func TestPaymentCreateDraft(t *testing.T) {
	svc, repo, _, _ := paymentFixture(models.PaymentStatusDraft)

	payment, err := svc.Create(context.Background(), "teacher-1", CreatePaymentRequest{
		StudentID:   "student-1",
		Description: "April lessons",
		AmountCents: 150000,
		Currency:    "idr",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusDraft, payment.Status)
	assert.Equal(t, "IDR", payment.Currency)
	assert.Len(t, repo.payments, 2)
}

func TestPaymentCreateUnknownStudent(t *testing.T) {
	svc, _, _, _ := paymentFixture(models.PaymentStatusDraft)

	_, err := svc.Create(context.Background(), "teacher-1", CreatePaymentRequest{
		StudentID:   "ghost",
		Description: "April lessons",
		AmountCents: 150000,
		Currency:    "IDR",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPaymentIssue(t *testing.T) {
	svc, _, _, _ := paymentFixture(models.PaymentStatusDraft)

	payment, err := svc.Issue(context.Background(), "teacher-1", "pay-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	require.NotNil(t, payment.GatewayRef)
	assert.True(t, strings.HasPrefix(*payment.GatewayRef, "inv-"))
	require.NotNil(t, payment.CheckoutURL)
	assert.Equal(t, "https://checkout.example/session", *payment.CheckoutURL)
}

func TestPaymentIssueRejectsFractionalAmount(t *testing.T) {
	svc, repo, _, _ := paymentFixture(models.PaymentStatusDraft)
	detail := repo.payments["pay-1"]
	detail.AmountCents = 150050
	repo.payments["pay-1"] = detail

	_, err := svc.Issue(context.Background(), "teacher-1", "pay-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.PaymentStatusDraft, repo.payments["pay-1"].Status)
}

func TestPaymentIssueRequiresDraft(t *testing.T) {
	svc, _, _, _ := paymentFixture(models.PaymentStatusPending)

	_, err := svc.Issue(context.Background(), "teacher-1", "pay-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestPaymentMarkPaid(t *testing.T) {
	svc, repo, queue, _ := paymentFixture(models.PaymentStatusPending)

	payment, err := svc.MarkPaid(context.Background(), "teacher-1", "pay-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, payment.Status)
	require.NotNil(t, payment.PaidAt)
	assert.Equal(t, models.PaymentStatusPaid, repo.payments["pay-1"].Status)

	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobTypeRenderReceipt, queue.jobs[0].Type)
}

func TestPaymentMarkPaidRejectsDraft(t *testing.T) {
	svc, _, queue, _ := paymentFixture(models.PaymentStatusDraft)

	_, err := svc.MarkPaid(context.Background(), "teacher-1", "pay-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Empty(t, queue.jobs)
}

func TestPaymentVoidRejectsPaid(t *testing.T) {
	svc, _, _, _ := paymentFixture(models.PaymentStatusPaid)

	_, err := svc.Void(context.Background(), "teacher-1", "pay-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestPaymentVoid(t *testing.T) {
	svc, repo, _, _ := paymentFixture(models.PaymentStatusOverdue)

	payment, err := svc.Void(context.Background(), "teacher-1", "pay-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusVoid, payment.Status)
	assert.Equal(t, models.PaymentStatusVoid, repo.payments["pay-1"].Status)
}

func TestPaymentGatewayNotificationSettles(t *testing.T) {
	svc, repo, queue, _ := paymentFixture(models.PaymentStatusPending)

	err := svc.HandleGatewayNotification(context.Background(), signedNotification("inv-existing", "settlement"))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, repo.payments["pay-1"].Status)
	require.Len(t, queue.jobs, 1)

	// a replayed notification must not enqueue a second render
	err = svc.HandleGatewayNotification(context.Background(), signedNotification("inv-existing", "settlement"))
	require.NoError(t, err)
	assert.Len(t, queue.jobs, 1)
}

func TestPaymentGatewayNotificationRejectsBadSignature(t *testing.T) {
	svc, repo, queue, _ := paymentFixture(models.PaymentStatusPending)

	notif := signedNotification("inv-existing", "settlement")
	notif.SignatureKey = "deadbeef"
	err := svc.HandleGatewayNotification(context.Background(), notif)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.PaymentStatusPending, repo.payments["pay-1"].Status)
	assert.Empty(t, queue.jobs)
}

func TestPaymentGatewayNotificationRejectsMissingSignature(t *testing.T) {
	svc, repo, _, _ := paymentFixture(models.PaymentStatusPending)

	err := svc.HandleGatewayNotification(context.Background(), GatewayNotification{
		OrderID:           "inv-existing",
		TransactionStatus: "settlement",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.PaymentStatusPending, repo.payments["pay-1"].Status)
}

func TestPaymentGatewayNotificationVoids(t *testing.T) {
	svc, repo, queue, _ := paymentFixture(models.PaymentStatusPending)

	err := svc.HandleGatewayNotification(context.Background(), signedNotification("inv-existing", "expire"))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusVoid, repo.payments["pay-1"].Status)
	assert.Empty(t, queue.jobs)
}

func TestPaymentGatewayNotificationUnknownRef(t *testing.T) {
	svc, _, _, _ := paymentFixture(models.PaymentStatusPending)

	err := svc.HandleGatewayNotification(context.Background(), signedNotification("inv-unknown", "settlement"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPaymentReceiptLink(t *testing.T) {
	svc, repo, _, _ := paymentFixture(models.PaymentStatusPaid)

	_, err := svc.ReceiptLink(context.Background(), "teacher-1", "pay-1")
	require.Error(t, err, "no receipt rendered yet")

	detail := repo.payments["pay-1"]
	path := "receipts/pay-1.pdf"
	detail.ReceiptPath = &path
	repo.payments["pay-1"] = detail

	link, err := svc.ReceiptLink(context.Background(), "teacher-1", "pay-1")
	require.NoError(t, err)
	assert.NotEmpty(t, link.Token)
	assert.True(t, link.ExpiresAt.After(time.Now()))
}

func TestPaymentRenderReceipt(t *testing.T) {
	svc, repo, _, store := paymentFixture(models.PaymentStatusPaid)

	err := svc.RenderReceipt(context.Background(), jobs.Job{
		ID:      "job-1",
		Type:    JobTypeRenderReceipt,
		Payload: receiptJobPayload{TeacherID: "teacher-1", PaymentID: "pay-1"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, store.saved["receipts/pay-1.pdf"])
	assert.Equal(t, "receipts/pay-1.pdf", repo.receiptPaths["pay-1"])
}

func TestPaymentSweepOverdue(t *testing.T) {
	svc, repo, _, _ := paymentFixture(models.PaymentStatusPending)
	repo.overdue = 3

	flipped, err := svc.SweepOverdue(context.Background(), "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), flipped)
}
