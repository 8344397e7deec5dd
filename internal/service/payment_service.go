package service

import (
	"context"
	"crypto/sha512"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"go.uber.org/zap"

	"github.com/tutorhive/tutorhive-api/internal/models"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
	"github.com/tutorhive/tutorhive-api/pkg/export"
	"github.com/tutorhive/tutorhive-api/pkg/jobs"
	"github.com/tutorhive/tutorhive-api/pkg/storage"
)

// JobTypeRenderReceipt identifies queued receipt rendering jobs.
const JobTypeRenderReceipt = "render_receipt"

type paymentRepository interface {
	List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error)
	FindByID(ctx context.Context, teacherID, id string) (*models.PaymentDetail, error)
	FindByGatewayRef(ctx context.Context, ref string) (*models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
	SetReceiptPath(ctx context.Context, id, path string) error
	MarkOverdue(ctx context.Context, teacherID string, asOf time.Time) (int64, error)
}

type paymentStudentRepository interface {
	FindByID(ctx context.Context, teacherID, id string) (*models.StudentDetail, error)
}

type snapGateway interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

type receiptEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type receiptStorage interface {
	Save(filename string, data []byte) (string, error)
}

// CreatePaymentRequest drafts an invoice.
type CreatePaymentRequest struct {
	StudentID   string     `json:"student_id" validate:"required"`
	Description string     `json:"description" validate:"required"`
	AmountCents int64      `json:"amount_cents" validate:"gt=0"`
	Currency    string     `json:"currency" validate:"required,len=3"`
	DueDate     *time.Time `json:"due_date"`
}

// ReceiptLink is a short-lived signed download pointer.
type ReceiptLink struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GatewayNotification is the Midtrans webhook payload subset used to verify
// and apply a transaction status update.
type GatewayNotification struct {
	OrderID           string `json:"order_id" binding:"required"`
	TransactionStatus string `json:"transaction_status" binding:"required"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
}

// PaymentService handles the invoice lifecycle: draft, issue, settle,
// void, and asynchronous receipt rendering.
type PaymentService struct {
	repo           paymentRepository
	students       paymentStudentRepository
	gateway        snapGateway
	gatewayEnabled bool
	serverKey      string
	queue          receiptEnqueuer
	storage        receiptStorage
	pdf            *export.PDFExporter
	csv            *export.CSVExporter
	signer         *storage.SignedURLSigner
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewPaymentService creates a new payment service. The gateway and queue may
// be nil; invoices then settle manually and receipts render inline on demand.
func NewPaymentService(repo paymentRepository, students paymentStudentRepository, gateway snapGateway, gatewayEnabled bool, serverKey string, queue receiptEnqueuer, store receiptStorage, signer *storage.SignedURLSigner, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		repo:           repo,
		students:       students,
		gateway:        gateway,
		gatewayEnabled: gatewayEnabled && gateway != nil,
		serverKey:      serverKey,
		queue:          queue,
		storage:        store,
		pdf:            export.NewPDFExporter(),
		csv:            export.NewCSVExporter(),
		signer:         signer,
		validator:      validate,
		logger:         logger,
	}
}

// NewSnapClient builds the Midtrans Snap client used as the gateway.
func NewSnapClient(serverKey string, production bool) *snap.Client {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	client := &snap.Client{}
	client.New(serverKey, env)
	return client
}

// List returns paginated invoices of a teacher.
func (s *PaymentService) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, *models.Pagination, error) {
	payments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return payments, pagination, nil
}

// Get returns one invoice scoped to the teacher.
func (s *PaymentService) Get(ctx context.Context, teacherID, id string) (*models.PaymentDetail, error) {
	payment, err := s.repo.FindByID(ctx, teacherID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	return payment, nil
}

// Create drafts an invoice for a student.
func (s *PaymentService) Create(ctx context.Context, teacherID string, req CreatePaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	if _, err := s.students.FindByID(ctx, teacherID, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	payment := &models.Payment{
		TeacherID:   teacherID,
		StudentID:   req.StudentID,
		Description: req.Description,
		AmountCents: req.AmountCents,
		Currency:    strings.ToUpper(req.Currency),
		Status:      models.PaymentStatusDraft,
		DueDate:     req.DueDate,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment")
	}
	return payment, nil
}

// Issue moves a DRAFT invoice to PENDING. With the gateway enabled a Snap
// checkout is created and its redirect URL stored on the invoice.
func (s *PaymentService) Issue(ctx context.Context, teacherID, id string) (*models.Payment, error) {
	detail, err := s.repo.FindByID(ctx, teacherID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if detail.Status != models.PaymentStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "only draft payments can be issued")
	}

	payment := detail.Payment
	payment.Status = models.PaymentStatusPending

	if s.gatewayEnabled {
		// midtrans GrossAmt is in whole currency units
		if payment.AmountCents%100 != 0 {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "gateway checkout requires a whole currency unit amount")
		}

		student, err := s.students.FindByID(ctx, teacherID, payment.StudentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}

		orderID := fmt.Sprintf("inv-%s", uuid.NewString())
		resp, snapErr := s.gateway.CreateTransaction(&snap.Request{
			TransactionDetails: midtrans.TransactionDetails{
				OrderID:  orderID,
				GrossAmt: payment.AmountCents / 100,
			},
			CustomerDetail: &midtrans.CustomerDetails{
				FName: student.FullName,
				Email: student.Email,
			},
		})
		if snapErr != nil {
			return nil, appErrors.Wrap(snapErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create checkout")
		}
		payment.GatewayRef = &orderID
		payment.CheckoutURL = &resp.RedirectURL
	}

	if err := s.repo.Update(ctx, &payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue payment")
	}
	return &payment, nil
}

// MarkPaid settles an invoice manually (cash, bank transfer).
func (s *PaymentService) MarkPaid(ctx context.Context, teacherID, id string) (*models.Payment, error) {
	detail, err := s.repo.FindByID(ctx, teacherID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if detail.Status != models.PaymentStatusPending && detail.Status != models.PaymentStatusOverdue {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "only pending or overdue payments can be settled")
	}
	return s.settle(ctx, detail.Payment)
}

// Void cancels an unpaid invoice.
func (s *PaymentService) Void(ctx context.Context, teacherID, id string) (*models.Payment, error) {
	detail, err := s.repo.FindByID(ctx, teacherID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if detail.Status == models.PaymentStatusPaid {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "paid payments cannot be voided")
	}

	payment := detail.Payment
	payment.Status = models.PaymentStatusVoid
	if err := s.repo.Update(ctx, &payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to void payment")
	}
	return &payment, nil
}

// HandleGatewayNotification verifies and applies a Midtrans webhook status
// update. The signature is SHA512(order_id + status_code + gross_amount +
// server key); notifications failing the check never touch invoice state.
func (s *PaymentService) HandleGatewayNotification(ctx context.Context, notif GatewayNotification) error {
	if s.serverKey != "" {
		want := strings.ToLower(notif.SignatureKey)
		sum := sha512.Sum512([]byte(notif.OrderID + notif.StatusCode + notif.GrossAmount + s.serverKey))
		if want == "" || hex.EncodeToString(sum[:]) != want {
			s.logger.Warn("rejected gateway notification with bad signature",
				zap.String("order_id", notif.OrderID))
			return appErrors.Clone(appErrors.ErrUnauthorized, "invalid gateway signature")
		}
	}

	payment, err := s.repo.FindByGatewayRef(ctx, notif.OrderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "unknown order reference")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}

	switch notif.TransactionStatus {
	case "capture", "settlement":
		if payment.Status == models.PaymentStatusPaid {
			return nil
		}
		if _, err := s.settle(ctx, *payment); err != nil {
			return err
		}
	case "deny", "cancel", "expire":
		payment.Status = models.PaymentStatusVoid
		if err := s.repo.Update(ctx, payment); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to void payment")
		}
	default:
		s.logger.Info("ignoring gateway notification",
			zap.String("order_id", notif.OrderID),
			zap.String("status", notif.TransactionStatus))
	}
	return nil
}

// ExportCSV renders the filtered invoice list as a CSV document.
func (s *PaymentService) ExportCSV(ctx context.Context, filter models.PaymentFilter) ([]byte, error) {
	filter.Page = 1
	filter.PageSize = 100
	var rows []map[string]string
	for {
		payments, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
		}
		for _, p := range payments {
			rows = append(rows, map[string]string{
				"ID":          p.ID,
				"Student":     p.StudentName,
				"Description": p.Description,
				"Amount":      formatAmount(p.AmountCents, p.Currency),
				"Status":      string(p.Status),
				"Paid At":     formatPaidAt(p.PaidAt),
			})
		}
		if filter.Page*filter.PageSize >= total || len(payments) == 0 {
			break
		}
		filter.Page++
	}

	data, err := s.csv.Render(export.Dataset{
		Headers: []string{"ID", "Student", "Description", "Amount", "Status", "Paid At"},
		Rows:    rows,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return data, nil
}

// SweepOverdue flips pending invoices past their due date to OVERDUE.
func (s *PaymentService) SweepOverdue(ctx context.Context, teacherID string) (int64, error) {
	flipped, err := s.repo.MarkOverdue(ctx, teacherID, time.Now().UTC())
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sweep overdue payments")
	}
	return flipped, nil
}

// ReceiptLink returns a signed download token for a rendered receipt.
func (s *PaymentService) ReceiptLink(ctx context.Context, teacherID, id string) (*ReceiptLink, error) {
	detail, err := s.repo.FindByID(ctx, teacherID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if detail.ReceiptPath == nil || *detail.ReceiptPath == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "receipt not available yet")
	}

	token, expiresAt, err := s.signer.Generate(detail.ID, *detail.ReceiptPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign receipt link")
	}
	return &ReceiptLink{Token: token, ExpiresAt: expiresAt}, nil
}

// RenderReceipt is the queue handler producing the PDF receipt for a paid
// invoice. The job payload is the payment ID prefixed with the teacher ID.
func (s *PaymentService) RenderReceipt(ctx context.Context, job jobs.Job) error {
	ref, ok := job.Payload.(receiptJobPayload)
	if !ok {
		return fmt.Errorf("unexpected receipt job payload %T", job.Payload)
	}

	detail, err := s.repo.FindByID(ctx, ref.TeacherID, ref.PaymentID)
	if err != nil {
		return fmt.Errorf("load payment for receipt: %w", err)
	}

	data, err := s.pdf.Render(export.Dataset{
		Headers: []string{"Field", "Value"},
		Rows: []map[string]string{
			{"Field": "Invoice", "Value": detail.ID},
			{"Field": "Student", "Value": detail.StudentName},
			{"Field": "Description", "Value": detail.Description},
			{"Field": "Amount", "Value": formatAmount(detail.AmountCents, detail.Currency)},
			{"Field": "Paid at", "Value": formatPaidAt(detail.PaidAt)},
		},
	}, "Payment receipt")
	if err != nil {
		return fmt.Errorf("render receipt: %w", err)
	}

	relPath := fmt.Sprintf("receipts/%s.pdf", detail.ID)
	if _, err := s.storage.Save(relPath, data); err != nil {
		return fmt.Errorf("store receipt: %w", err)
	}
	if err := s.repo.SetReceiptPath(ctx, detail.ID, relPath); err != nil {
		return fmt.Errorf("record receipt path: %w", err)
	}

	s.logger.Info("receipt rendered", zap.String("payment_id", detail.ID))
	return nil
}

type receiptJobPayload struct {
	TeacherID string
	PaymentID string
}

func (s *PaymentService) settle(ctx context.Context, payment models.Payment) (*models.Payment, error) {
	now := time.Now().UTC()
	payment.Status = models.PaymentStatusPaid
	payment.PaidAt = &now
	if err := s.repo.Update(ctx, &payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to settle payment")
	}

	if s.queue != nil {
		job := jobs.Job{
			ID:      uuid.NewString(),
			Type:    JobTypeRenderReceipt,
			Payload: receiptJobPayload{TeacherID: payment.TeacherID, PaymentID: payment.ID},
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("failed to enqueue receipt rendering", zap.Error(err))
		}
	}
	return &payment, nil
}

func formatAmount(cents int64, currency string) string {
	return fmt.Sprintf("%s %d.%02d", currency, cents/100, cents%100)
}

func formatPaidAt(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.Format(time.RFC3339)
}
