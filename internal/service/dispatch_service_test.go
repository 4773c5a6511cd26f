package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/connecta/citizen-service/internal/domain"
	"github.com/connecta/citizen-service/internal/repository"
	"github.com/connecta/citizen-service/internal/transport"
	"github.com/connecta/citizen-service/pkg/util"
)

type fakeCommRepo struct {
	comms     map[string]*domain.Communication
	nextID    int
	updateErr map[string]error
}

func newFakeCommRepo() *fakeCommRepo {
	return &fakeCommRepo{
		comms:     make(map[string]*domain.Communication),
		updateErr: make(map[string]error),
	}
}

func (r *fakeCommRepo) Create(_ context.Context, comm *domain.Communication) error {
	r.nextID++
	comm.ID = fmt.Sprintf("comm-%d", r.nextID)
	clone := *comm
	r.comms[comm.ID] = &clone
	return nil
}

func (r *fakeCommRepo) Update(_ context.Context, comm *domain.Communication) error {
	if err := r.updateErr[comm.ID]; err != nil {
		return err
	}
	if _, ok := r.comms[comm.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *comm
	r.comms[comm.ID] = &clone
	return nil
}

func (r *fakeCommRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.comms[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.comms, id)
	return nil
}

func (r *fakeCommRepo) GetByID(_ context.Context, id string) (*domain.Communication, error) {
	comm, ok := r.comms[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *comm
	return &clone, nil
}

func (r *fakeCommRepo) List(context.Context) ([]domain.Communication, error) {
	var result []domain.Communication
	for _, c := range r.comms {
		result = append(result, *c)
	}
	return result, nil
}

func (r *fakeCommRepo) ListByStatus(_ context.Context, status domain.CommunicationStatus) ([]domain.Communication, error) {
	var result []domain.Communication
	for _, c := range r.comms {
		if c.Status == status {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (r *fakeCommRepo) ListByCreator(_ context.Context, creatorID string) ([]domain.Communication, error) {
	var result []domain.Communication
	for _, c := range r.comms {
		if c.CreatorID == creatorID {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (r *fakeCommRepo) ListDue(_ context.Context, now time.Time) ([]domain.Communication, error) {
	var result []domain.Communication
	for _, c := range r.comms {
		if c.Status == domain.CommStatusScheduled && c.ScheduledFor != nil && !c.ScheduledFor.After(now) {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (r *fakeCommRepo) ResetStuckSending(_ context.Context, before time.Time) (int64, error) {
	var count int64
	for _, c := range r.comms {
		if c.Status != domain.CommStatusSending || !c.UpdatedAt.Before(before) {
			continue
		}
		c.Status = domain.CommStatusScheduled
		if c.ScheduledFor == nil {
			at := c.UpdatedAt
			c.ScheduledFor = &at
		}
		count++
	}
	return count, nil
}

func (r *fakeCommRepo) Count(context.Context) (int64, error) {
	return int64(len(r.comms)), nil
}

func (r *fakeCommRepo) CountByStatus(ctx context.Context, status domain.CommunicationStatus) (int64, error) {
	list, _ := r.ListByStatus(ctx, status)
	return int64(len(list)), nil
}

func (r *fakeCommRepo) CountGroupedByType(context.Context) (map[domain.CommunicationType]int64, error) {
	result := make(map[domain.CommunicationType]int64)
	for _, c := range r.comms {
		result[c.Type]++
	}
	return result, nil
}

func (r *fakeCommRepo) CountGroupedByChannel(context.Context) (map[domain.CommunicationChannel]int64, error) {
	result := make(map[domain.CommunicationChannel]int64)
	for _, c := range r.comms {
		result[c.Channel]++
	}
	return result, nil
}

func (r *fakeCommRepo) SumCounters(context.Context) (repository.CommunicationCounters, error) {
	var counters repository.CommunicationCounters
	for _, c := range r.comms {
		counters.Recipients += int64(c.TotalRecipients)
		counters.Sent += int64(c.TotalSent)
		counters.Errors += int64(c.TotalErrors)
	}
	return counters, nil
}

type fakeRecipientRepo struct {
	recipients []domain.CommunicationRecipient
}

func (r *fakeRecipientRepo) Create(_ context.Context, recipient *domain.CommunicationRecipient) error {
	recipient.ID = fmt.Sprintf("recipient-%d", len(r.recipients)+1)
	r.recipients = append(r.recipients, *recipient)
	return nil
}

func (r *fakeRecipientRepo) Update(_ context.Context, recipient *domain.CommunicationRecipient) error {
	for i := range r.recipients {
		if r.recipients[i].ID == recipient.ID {
			r.recipients[i] = *recipient
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeRecipientRepo) ListByCommunication(_ context.Context, communicationID string) ([]domain.CommunicationRecipient, error) {
	var result []domain.CommunicationRecipient
	for _, rec := range r.recipients {
		if rec.CommunicationID == communicationID {
			result = append(result, rec)
		}
	}
	return result, nil
}

func (r *fakeRecipientRepo) ListPending(_ context.Context, communicationID string) ([]domain.CommunicationRecipient, error) {
	var result []domain.CommunicationRecipient
	for _, rec := range r.recipients {
		if rec.CommunicationID == communicationID && !rec.Sent {
			result = append(result, rec)
		}
	}
	return result, nil
}

type staticAudience struct {
	recipients []domain.Recipient
}

func (s staticAudience) Resolve(context.Context, domain.RecipientFilter) ([]domain.Recipient, error) {
	return s.recipients, nil
}

type scriptedSender struct {
	channel domain.CommunicationChannel
	failFor map[string]error
	sends   []string
}

func (s *scriptedSender) Channel() domain.CommunicationChannel { return s.channel }

func (s *scriptedSender) Send(_ context.Context, recipient domain.Recipient, _ transport.Message) error {
	s.sends = append(s.sends, recipient.Email)
	if err, ok := s.failFor[recipient.Email]; ok {
		return err
	}
	return nil
}

type dispatchFixture struct {
	service    *DispatchService
	comms      *fakeCommRepo
	recipients *fakeRecipientRepo
	email      *scriptedSender
	sms        *scriptedSender
	clock      fixedClock
}

func newDispatchFixture(t *testing.T) *dispatchFixture {
	t.Helper()

	clock := fixedClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	comms := newFakeCommRepo()
	recipients := &fakeRecipientRepo{}
	email := &scriptedSender{channel: domain.ChannelEmail, failFor: map[string]error{}}
	sms := &scriptedSender{channel: domain.ChannelSMS, failFor: map[string]error{}}

	svc := NewDispatchService(DispatchDependencies{
		CommunicationRepo: comms,
		RecipientRepo:     recipients,
		Resolver: staticAudience{recipients: []domain.Recipient{
			{Name: "João Silva", Email: "joao@email.com", Phone: "(16) 99999-0001"},
			{Name: "Maria Santos", Email: "maria@email.com", Phone: "(16) 99999-0002"},
			{Name: "Pedro Oliveira", Email: "pedro@email.com", Phone: "(16) 99999-0003"},
		}},
		Registry:  transport.NewRegistry(email, sms),
		TxManager: fakeTxManager{},
		Clock:     clock,
		Logger:    zap.NewNop(),
	})
	return &dispatchFixture{
		service:    svc,
		comms:      comms,
		recipients: recipients,
		email:      email,
		sms:        sms,
		clock:      clock,
	}
}

func baseInput() CommunicationCreateInput {
	return CommunicationCreateInput{
		Title:   "Mutirão de Limpeza",
		Message: "A prefeitura realizará mutirão no sábado.",
		Type:    domain.CommTypeInformative,
		Channel: domain.ChannelEmail,
	}
}

func TestDispatchCreateDraft(t *testing.T) {
	f := newDispatchFixture(t)

	input := baseInput()
	input.SaveAsDraft = true
	comm, err := f.service.Create(context.Background(), "staff-1", input)
	require.NoError(t, err)

	assert.Equal(t, domain.CommStatusDraft, comm.Status)
	assert.Equal(t, 3, comm.TotalRecipients)
	assert.Empty(t, f.email.sends)

	stored, err := f.recipients.ListByCommunication(context.Background(), comm.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

func TestDispatchCreateScheduled(t *testing.T) {
	f := newDispatchFixture(t)

	input := baseInput()
	future := f.clock.now.Add(2 * time.Hour)
	input.ScheduledFor = &future
	comm, err := f.service.Create(context.Background(), "staff-1", input)
	require.NoError(t, err)

	assert.Equal(t, domain.CommStatusScheduled, comm.Status)
	assert.Empty(t, f.email.sends)
}

func TestDispatchCreateSendsImmediately(t *testing.T) {
	f := newDispatchFixture(t)

	comm, err := f.service.Create(context.Background(), "staff-1", baseInput())
	require.NoError(t, err)

	assert.Equal(t, domain.CommStatusSent, comm.Status)
	assert.Equal(t, 3, comm.TotalSent)
	assert.Equal(t, 0, comm.TotalErrors)
	require.NotNil(t, comm.SentAt)
	assert.Len(t, f.email.sends, 3)
	assert.Empty(t, f.sms.sends)
}

func TestDispatchSendPartialFailure(t *testing.T) {
	f := newDispatchFixture(t)
	f.email.failFor["maria@email.com"] = errors.New("mailbox unavailable")

	comm, err := f.service.Create(context.Background(), "staff-1", baseInput())
	require.NoError(t, err)

	assert.Equal(t, domain.CommStatusError, comm.Status)
	assert.Equal(t, 2, comm.TotalSent)
	assert.Equal(t, 1, comm.TotalErrors)
	require.NotNil(t, comm.ErrorMessage)
	assert.Equal(t, "1 de 3 envios falharam", *comm.ErrorMessage)

	stored, err := f.recipients.ListByCommunication(context.Background(), comm.ID)
	require.NoError(t, err)
	for _, rec := range stored {
		assert.Equal(t, 1, rec.Attempts)
		if rec.Email == "maria@email.com" {
			assert.True(t, rec.Failed)
			assert.False(t, rec.Sent)
			require.NotNil(t, rec.ErrorMessage)
			assert.Equal(t, "mailbox unavailable", *rec.ErrorMessage)
		} else {
			assert.True(t, rec.Sent)
			require.NotNil(t, rec.SentAt)
		}
	}
}

func TestDispatchSendGuardsStatus(t *testing.T) {
	f := newDispatchFixture(t)

	comm, err := f.service.Create(context.Background(), "staff-1", baseInput())
	require.NoError(t, err)
	assert.Equal(t, domain.CommStatusSent, comm.Status)

	_, err = f.service.Send(context.Background(), comm.ID)
	assert.True(t, util.IsInvalidState(err))
}

func TestDispatchChannelAllFansOut(t *testing.T) {
	f := newDispatchFixture(t)

	input := baseInput()
	input.Channel = domain.ChannelAll
	comm, err := f.service.Create(context.Background(), "staff-1", input)
	require.NoError(t, err)

	assert.Equal(t, domain.CommStatusSent, comm.Status)
	assert.Len(t, f.email.sends, 3)
	assert.Len(t, f.sms.sends, 3)
}

func TestDispatchCancel(t *testing.T) {
	f := newDispatchFixture(t)

	input := baseInput()
	future := f.clock.now.Add(time.Hour)
	input.ScheduledFor = &future
	comm, err := f.service.Create(context.Background(), "staff-1", input)
	require.NoError(t, err)

	cancelled, err := f.service.Cancel(context.Background(), comm.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CommStatusCancelled, cancelled.Status)

	_, err = f.service.Cancel(context.Background(), comm.ID)
	assert.True(t, util.IsInvalidState(err))
}

func TestDispatchUpdateRepromotesSchedule(t *testing.T) {
	f := newDispatchFixture(t)

	input := baseInput()
	input.SaveAsDraft = true
	comm, err := f.service.Create(context.Background(), "staff-1", input)
	require.NoError(t, err)

	future := f.clock.now.Add(3 * time.Hour)
	newTitle := "Mutirão Adiado"
	updated, err := f.service.Update(context.Background(), comm.ID, CommunicationUpdateInput{
		Title:        &newTitle,
		ScheduledFor: &future,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CommStatusScheduled, updated.Status)
	assert.Equal(t, "Mutirão Adiado", updated.Title)
}

func TestDispatchDeleteOnlyDrafts(t *testing.T) {
	f := newDispatchFixture(t)

	input := baseInput()
	input.SaveAsDraft = true
	draft, err := f.service.Create(context.Background(), "staff-1", input)
	require.NoError(t, err)
	require.NoError(t, f.service.Delete(context.Background(), draft.ID))

	sent, err := f.service.Create(context.Background(), "staff-1", baseInput())
	require.NoError(t, err)
	err = f.service.Delete(context.Background(), sent.ID)
	assert.True(t, util.IsInvalidState(err))
}

func TestDispatchProcessDue(t *testing.T) {
	f := newDispatchFixture(t)

	input := baseInput()
	past := f.clock.now.Add(-time.Hour)
	input.ScheduledFor = &past
	input.SaveAsDraft = true
	first, err := f.service.Create(context.Background(), "staff-1", input)
	require.NoError(t, err)

	// Promote the draft to scheduled with a due timestamp.
	firstStored, err := f.comms.GetByID(context.Background(), first.ID)
	require.NoError(t, err)
	firstStored.Status = domain.CommStatusScheduled
	require.NoError(t, f.comms.Update(context.Background(), firstStored))

	future := f.clock.now.Add(time.Hour)
	second := baseInput()
	second.ScheduledFor = &future
	_, err = f.service.Create(context.Background(), "staff-1", second)
	require.NoError(t, err)

	processed, err := f.service.ProcessDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	sent, err := f.comms.GetByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CommStatusSent, sent.Status)
}

// createDueScheduled stores a communication already SCHEDULED with a past
// due time, as the sweep would find it.
func createDueScheduled(t *testing.T, f *dispatchFixture, channel domain.CommunicationChannel) *domain.Communication {
	t.Helper()

	input := baseInput()
	input.Channel = channel
	past := f.clock.now.Add(-time.Hour)
	input.ScheduledFor = &past
	input.SaveAsDraft = true
	comm, err := f.service.Create(context.Background(), "staff-1", input)
	require.NoError(t, err)

	stored, err := f.comms.GetByID(context.Background(), comm.ID)
	require.NoError(t, err)
	stored.Status = domain.CommStatusScheduled
	require.NoError(t, f.comms.Update(context.Background(), stored))
	return stored
}

func TestDispatchProcessDueIsolatesFailingCommunication(t *testing.T) {
	f := newDispatchFixture(t)
	f.sms.failFor["joao@email.com"] = errors.New("gateway down")
	f.sms.failFor["maria@email.com"] = errors.New("gateway down")
	f.sms.failFor["pedro@email.com"] = errors.New("gateway down")

	failing := createDueScheduled(t, f, domain.ChannelSMS)
	healthy := createDueScheduled(t, f, domain.ChannelEmail)

	processed, err := f.service.ProcessDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	broken, err := f.comms.GetByID(context.Background(), failing.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CommStatusError, broken.Status)
	assert.Equal(t, 3, broken.TotalErrors)
	assert.Equal(t, 0, broken.TotalSent)
	require.NotNil(t, broken.ErrorMessage)
	assert.Equal(t, "3 de 3 envios falharam", *broken.ErrorMessage)

	delivered, err := f.comms.GetByID(context.Background(), healthy.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CommStatusSent, delivered.Status)
	assert.Equal(t, 3, delivered.TotalSent)
	assert.Equal(t, 0, delivered.TotalErrors)
}

func TestDispatchProcessDueContinuesAfterSendError(t *testing.T) {
	f := newDispatchFixture(t)

	broken := createDueScheduled(t, f, domain.ChannelEmail)
	healthy := createDueScheduled(t, f, domain.ChannelEmail)
	f.comms.updateErr[broken.ID] = errors.New("connection reset")

	processed, err := f.service.ProcessDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	stuck, err := f.comms.GetByID(context.Background(), broken.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CommStatusScheduled, stuck.Status)

	delivered, err := f.comms.GetByID(context.Background(), healthy.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CommStatusSent, delivered.Status)
}

func TestDispatchProcessDueRequeuesStuckSending(t *testing.T) {
	f := newDispatchFixture(t)

	input := baseInput()
	input.SaveAsDraft = true
	comm, err := f.service.Create(context.Background(), "staff-1", input)
	require.NoError(t, err)

	// A crash mid-pass leaves the row SENDING with no schedule.
	stored, err := f.comms.GetByID(context.Background(), comm.ID)
	require.NoError(t, err)
	stored.Status = domain.CommStatusSending
	stored.UpdatedAt = f.clock.now.Add(-time.Hour)
	require.NoError(t, f.comms.Update(context.Background(), stored))

	processed, err := f.service.ProcessDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	recovered, err := f.comms.GetByID(context.Background(), comm.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CommStatusSent, recovered.Status)
	assert.Equal(t, 3, recovered.TotalSent)
	assert.Len(t, f.email.sends, 3)
}

func TestDispatchStatistics(t *testing.T) {
	f := newDispatchFixture(t)
	f.email.failFor["pedro@email.com"] = errors.New("bounce")

	_, err := f.service.Create(context.Background(), "staff-1", baseInput())
	require.NoError(t, err)

	draft := baseInput()
	draft.SaveAsDraft = true
	draft.Type = domain.CommTypeAlert
	_, err = f.service.Create(context.Background(), "staff-1", draft)
	require.NoError(t, err)

	stats, err := f.service.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.ByStatus[domain.CommStatusDraft])
	assert.Equal(t, int64(1), stats.ByStatus[domain.CommStatusError])
	assert.Equal(t, int64(6), stats.TotalRecipients)
	assert.Equal(t, int64(2), stats.TotalSent)
	assert.Equal(t, int64(1), stats.TotalErrors)
	assert.InDelta(t, 33.33, stats.SuccessRate, 0.01)
	assert.Equal(t, int64(1), stats.ByTypeLabel["Informativo"])
	assert.Equal(t, int64(1), stats.ByTypeLabel["Alerta"])
	assert.Equal(t, int64(2), stats.ByChannelLabel["E-mail"])
}

func TestDispatchCreateValidation(t *testing.T) {
	f := newDispatchFixture(t)

	input := baseInput()
	input.Title = "  "
	_, err := f.service.Create(context.Background(), "staff-1", input)
	require.Error(t, err)

	input = baseInput()
	input.Channel = "FAX"
	_, err = f.service.Create(context.Background(), "staff-1", input)
	require.Error(t, err)
}
