package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connecta/citizen-service/internal/domain"
	"github.com/connecta/citizen-service/pkg/util"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type fakeTxManager struct{}

func (fakeTxManager) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeProtocolRepo struct {
	protocols map[string]*domain.Protocol
	sequences map[int]int64
	nextID    int
}

func newFakeProtocolRepo() *fakeProtocolRepo {
	return &fakeProtocolRepo{
		protocols: make(map[string]*domain.Protocol),
		sequences: make(map[int]int64),
	}
}

func (r *fakeProtocolRepo) Create(_ context.Context, p *domain.Protocol) error {
	r.nextID++
	p.ID = fmt.Sprintf("protocol-%d", r.nextID)
	clone := *p
	r.protocols[p.ID] = &clone
	return nil
}

func (r *fakeProtocolRepo) Update(_ context.Context, p *domain.Protocol) error {
	if _, ok := r.protocols[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *p
	r.protocols[p.ID] = &clone
	return nil
}

func (r *fakeProtocolRepo) GetByID(_ context.Context, id string) (*domain.Protocol, error) {
	p, ok := r.protocols[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *p
	return &clone, nil
}

func (r *fakeProtocolRepo) GetByNumber(_ context.Context, number string) (*domain.Protocol, error) {
	for _, p := range r.protocols {
		if p.Number == number {
			clone := *p
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeProtocolRepo) List(context.Context) ([]domain.Protocol, error) {
	var result []domain.Protocol
	for _, p := range r.protocols {
		result = append(result, *p)
	}
	return result, nil
}

func (r *fakeProtocolRepo) ListByStatus(_ context.Context, status domain.ProtocolStatus) ([]domain.Protocol, error) {
	var result []domain.Protocol
	for _, p := range r.protocols {
		if p.Status == status {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (r *fakeProtocolRepo) ListByAssignee(_ context.Context, assigneeID string) ([]domain.Protocol, error) {
	var result []domain.Protocol
	for _, p := range r.protocols {
		if p.AssigneeID != nil && *p.AssigneeID == assigneeID {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (r *fakeProtocolRepo) ListOverdue(_ context.Context, now time.Time) ([]domain.Protocol, error) {
	var result []domain.Protocol
	for _, p := range r.protocols {
		if p.IsOverdue(now) {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (r *fakeProtocolRepo) CountByStatus(ctx context.Context, status domain.ProtocolStatus) (int64, error) {
	list, _ := r.ListByStatus(ctx, status)
	return int64(len(list)), nil
}

func (r *fakeProtocolRepo) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	list, _ := r.ListOverdue(ctx, now)
	return int64(len(list)), nil
}

func (r *fakeProtocolRepo) CountByCategory(context.Context) (map[string]int64, error) {
	return map[string]int64{}, nil
}

func (r *fakeProtocolRepo) AverageTurnaroundDays(context.Context) (float64, error) {
	return 0, nil
}

func (r *fakeProtocolRepo) NextYearSequence(_ context.Context, year int) (int64, error) {
	r.sequences[year]++
	return r.sequences[year], nil
}

type fakeDataRepo struct {
	entries []domain.ProtocolDataEntry
}

func (r *fakeDataRepo) Create(_ context.Context, entry *domain.ProtocolDataEntry) error {
	entry.ID = fmt.Sprintf("data-%d", len(r.entries)+1)
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeDataRepo) ListByProtocol(_ context.Context, protocolID string) ([]domain.ProtocolDataEntry, error) {
	var result []domain.ProtocolDataEntry
	for _, e := range r.entries {
		if e.ProtocolID == protocolID {
			result = append(result, e)
		}
	}
	return result, nil
}

type fakeHistoryRepo struct {
	entries []domain.ProtocolHistoryEntry
}

func (r *fakeHistoryRepo) Create(_ context.Context, entry *domain.ProtocolHistoryEntry) error {
	entry.ID = fmt.Sprintf("history-%d", len(r.entries)+1)
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByProtocol(_ context.Context, protocolID string) ([]domain.ProtocolHistoryEntry, error) {
	var result []domain.ProtocolHistoryEntry
	for _, e := range r.entries {
		if e.ProtocolID == protocolID {
			result = append(result, e)
		}
	}
	return result, nil
}

type fakeCommentRepo struct {
	comments []domain.ProtocolComment
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.ProtocolComment) error {
	comment.ID = fmt.Sprintf("comment-%d", len(r.comments)+1)
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByProtocol(_ context.Context, protocolID string) ([]domain.ProtocolComment, error) {
	var result []domain.ProtocolComment
	for _, c := range r.comments {
		if c.ProtocolID == protocolID {
			result = append(result, c)
		}
	}
	return result, nil
}

type fakeCatalogRepo struct {
	services map[string]*domain.CatalogService
	nextID   int
}

func (r *fakeCatalogRepo) Create(_ context.Context, svc *domain.CatalogService) error {
	r.nextID++
	svc.ID = fmt.Sprintf("svc-new-%d", r.nextID)
	clone := *svc
	r.services[svc.ID] = &clone
	return nil
}

func (r *fakeCatalogRepo) Update(_ context.Context, svc *domain.CatalogService) error {
	if _, ok := r.services[svc.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *svc
	r.services[svc.ID] = &clone
	return nil
}

func (r *fakeCatalogRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.services[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.services, id)
	return nil
}

func (r *fakeCatalogRepo) GetByID(_ context.Context, id string) (*domain.CatalogService, error) {
	svc, ok := r.services[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *svc
	return &clone, nil
}

func (r *fakeCatalogRepo) List(context.Context) ([]domain.CatalogService, error) {
	var result []domain.CatalogService
	for _, svc := range r.services {
		result = append(result, *svc)
	}
	return result, nil
}

func (r *fakeCatalogRepo) ListActive(ctx context.Context) ([]domain.CatalogService, error) {
	all, _ := r.List(ctx)
	var result []domain.CatalogService
	for _, svc := range all {
		if svc.IsActive {
			result = append(result, svc)
		}
	}
	return result, nil
}

func (r *fakeCatalogRepo) ListByCategory(_ context.Context, categoryID string) ([]domain.CatalogService, error) {
	var result []domain.CatalogService
	for _, svc := range r.services {
		if svc.CategoryID == categoryID {
			result = append(result, *svc)
		}
	}
	return result, nil
}

func (r *fakeCatalogRepo) ExistsByTitle(_ context.Context, title, excludeID string) (bool, error) {
	for _, svc := range r.services {
		if svc.Title == title && svc.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCatalogRepo) ReplaceFields(_ context.Context, serviceID string, fields []domain.ServiceField) error {
	svc, ok := r.services[serviceID]
	if !ok {
		return pgx.ErrNoRows
	}
	svc.Fields = append([]domain.ServiceField{}, fields...)
	return nil
}

type fakeUserRepo struct {
	users map[string]*domain.User
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(context.Context) ([]domain.User, error) {
	var result []domain.User
	for _, u := range r.users {
		result = append(result, *u)
	}
	return result, nil
}

type protocolFixture struct {
	service   *ProtocolService
	protocols *fakeProtocolRepo
	history   *fakeHistoryRepo
	comments  *fakeCommentRepo
	data      *fakeDataRepo
	clock     fixedClock
}

func newProtocolFixture(t *testing.T) *protocolFixture {
	t.Helper()

	clock := fixedClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	protocols := newFakeProtocolRepo()
	history := &fakeHistoryRepo{}
	comments := &fakeCommentRepo{}
	data := &fakeDataRepo{}
	catalog := &fakeCatalogRepo{services: map[string]*domain.CatalogService{
		"svc-1": {
			ID:       "svc-1",
			Title:    "Poda de Árvore",
			SLADays:  5,
			IsActive: true,
			Fields: []domain.ServiceField{
				{Kind: domain.FieldKindLocation, Required: true},
				{Kind: domain.FieldKindNotes, Required: false},
			},
		},
		"svc-inactive": {
			ID:       "svc-inactive",
			Title:    "Serviço Desativado",
			SLADays:  3,
			IsActive: false,
		},
	}}
	users := &fakeUserRepo{users: map[string]*domain.User{
		"staff-1": {ID: "staff-1", Name: "Ana Costa", Role: domain.RoleAttendant, Active: true},
		"staff-2": {ID: "staff-2", Name: "Bruno Lima", Role: domain.RoleManager, Active: true},
	}}

	svc := NewProtocolService(ProtocolDependencies{
		ProtocolRepo: protocols,
		DataRepo:     data,
		HistoryRepo:  history,
		CommentRepo:  comments,
		ServiceRepo:  catalog,
		UserRepo:     users,
		TxManager:    fakeTxManager{},
		Clock:        clock,
	})
	return &protocolFixture{
		service:   svc,
		protocols: protocols,
		history:   history,
		comments:  comments,
		data:      data,
		clock:     clock,
	}
}

func (f *protocolFixture) create(t *testing.T) *domain.Protocol {
	t.Helper()
	protocol, err := f.service.Create(context.Background(), ProtocolCreateInput{
		ServiceID:   "svc-1",
		CitizenName: "Carlos Pereira",
		Data: []ProtocolDataInput{
			{Kind: domain.FieldKindLocation, Value: "Rua das Flores, 100"},
		},
	})
	require.NoError(t, err)
	return protocol
}

func TestProtocolCreate(t *testing.T) {
	f := newProtocolFixture(t)

	protocol := f.create(t)

	assert.Equal(t, "#20250001", protocol.Number)
	assert.Equal(t, domain.ProtocolStatusOpen, protocol.Status)
	assert.Equal(t, domain.ProtocolPriorityMedium, protocol.Priority)
	assert.Equal(t, f.clock.now.Add(5*24*time.Hour), protocol.Deadline)

	require.Len(t, f.history.entries, 1)
	assert.Equal(t, domain.ActionCreated, f.history.entries[0].Action)
	assert.Contains(t, f.history.entries[0].Description, "#20250001")
	require.Len(t, f.data.entries, 1)
	assert.Equal(t, domain.FieldKindLocation, f.data.entries[0].Kind)
}

func TestProtocolCreateSequencePerYear(t *testing.T) {
	f := newProtocolFixture(t)

	first := f.create(t)
	second := f.create(t)

	assert.Equal(t, "#20250001", first.Number)
	assert.Equal(t, "#20250002", second.Number)
}

func TestProtocolCreateMissingRequiredField(t *testing.T) {
	f := newProtocolFixture(t)

	_, err := f.service.Create(context.Background(), ProtocolCreateInput{
		ServiceID:   "svc-1",
		CitizenName: "Carlos Pereira",
	})
	require.Error(t, err)
	var domainErr *util.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
	assert.Empty(t, f.protocols.protocols)
	assert.Empty(t, f.history.entries)
}

func TestProtocolCreateInactiveService(t *testing.T) {
	f := newProtocolFixture(t)

	_, err := f.service.Create(context.Background(), ProtocolCreateInput{
		ServiceID:   "svc-inactive",
		CitizenName: "Carlos Pereira",
	})
	assert.True(t, util.IsInvalidState(err))
}

func TestProtocolAssignAdvancesOpenToUnderReview(t *testing.T) {
	f := newProtocolFixture(t)
	protocol := f.create(t)

	actor := "staff-2"
	updated, err := f.service.Assign(context.Background(), protocol.ID, "staff-1", &actor)
	require.NoError(t, err)

	assert.Equal(t, domain.ProtocolStatusUnderReview, updated.Status)
	require.NotNil(t, updated.AssigneeID)
	assert.Equal(t, "staff-1", *updated.AssigneeID)

	require.Len(t, f.history.entries, 2)
	entry := f.history.entries[1]
	assert.Equal(t, domain.ActionAssigned, entry.Action)
	assert.Equal(t, "Responsável alterado de Nenhum para Ana Costa", entry.Description)
	require.NotNil(t, entry.PreviousStatus)
	assert.Equal(t, domain.ProtocolStatusOpen, *entry.PreviousStatus)
	require.NotNil(t, entry.NewStatus)
	assert.Equal(t, domain.ProtocolStatusUnderReview, *entry.NewStatus)
}

func TestProtocolAssignKeepsNonOpenStatus(t *testing.T) {
	f := newProtocolFixture(t)
	protocol := f.create(t)

	_, err := f.service.Assign(context.Background(), protocol.ID, "staff-1", nil)
	require.NoError(t, err)

	updated, err := f.service.Assign(context.Background(), protocol.ID, "staff-2", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ProtocolStatusUnderReview, updated.Status)
	assert.Equal(t, "Responsável alterado de Ana Costa para Bruno Lima", f.history.entries[2].Description)
	assert.Nil(t, f.history.entries[2].PreviousStatus)
}

func TestProtocolChangeStatusIllegalTransition(t *testing.T) {
	f := newProtocolFixture(t)
	protocol := f.create(t)

	_, err := f.service.ChangeStatus(context.Background(), protocol.ID, domain.ProtocolStatusApproved, "", false, nil)
	assert.True(t, util.IsInvalidState(err))
	require.Len(t, f.history.entries, 1)
}

func TestProtocolChangeStatusOverride(t *testing.T) {
	f := newProtocolFixture(t)
	protocol := f.create(t)

	updated, err := f.service.ChangeStatus(context.Background(), protocol.ID, domain.ProtocolStatusApproved, "", true, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ProtocolStatusApproved, updated.Status)

	require.Len(t, f.history.entries, 2)
	assert.Equal(t, "Status alterado de Aberto para Aprovado (alteração forçada)", f.history.entries[1].Description)
}

func TestProtocolChangeStatusTerminalEvenWithOverride(t *testing.T) {
	f := newProtocolFixture(t)
	protocol := f.create(t)

	_, err := f.service.ChangeStatus(context.Background(), protocol.ID, domain.ProtocolStatusCancelled, "", false, nil)
	require.NoError(t, err)

	_, err = f.service.ChangeStatus(context.Background(), protocol.ID, domain.ProtocolStatusOpen, "", true, nil)
	assert.True(t, util.IsInvalidState(err))
}

func TestProtocolChangeStatusAwaitingInfoAction(t *testing.T) {
	f := newProtocolFixture(t)
	protocol := f.create(t)

	_, err := f.service.ChangeStatus(context.Background(), protocol.ID, domain.ProtocolStatusUnderReview, "", false, nil)
	require.NoError(t, err)
	_, err = f.service.ChangeStatus(context.Background(), protocol.ID, domain.ProtocolStatusInProgress, "", false, nil)
	require.NoError(t, err)
	_, err = f.service.ChangeStatus(context.Background(), protocol.ID, domain.ProtocolStatusAwaitingInfo, "Falta comprovante de endereço", false, nil)
	require.NoError(t, err)

	last := f.history.entries[len(f.history.entries)-1]
	assert.Equal(t, domain.ActionInfoRequested, last.Action)
	assert.Equal(t, "Falta comprovante de endereço", last.Description)
}

func TestProtocolChangePriority(t *testing.T) {
	f := newProtocolFixture(t)
	protocol := f.create(t)

	updated, err := f.service.ChangePriority(context.Background(), protocol.ID, domain.ProtocolPriorityUrgent, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ProtocolPriorityUrgent, updated.Priority)
	assert.Equal(t, "Prioridade alterada de Média para Urgente", f.history.entries[1].Description)

	_, err = f.service.ChangePriority(context.Background(), protocol.ID, "EXTREME", nil)
	require.Error(t, err)
}

func TestProtocolAddComment(t *testing.T) {
	f := newProtocolFixture(t)
	protocol := f.create(t)

	_, err := f.service.AddComment(context.Background(), protocol.ID, "staff-1", "   ", false)
	require.Error(t, err)

	comment, err := f.service.AddComment(context.Background(), protocol.ID, "staff-1", "Equipe acionada", true)
	require.NoError(t, err)
	assert.True(t, comment.Internal)
	assert.Equal(t, "Comentário interno adicionado", f.history.entries[1].Description)
}

func TestStringPreviewKeepsRunesWhole(t *testing.T) {
	long := strings.Repeat("ação", 40)
	preview := stringPreview(long, 120)
	assert.True(t, utf8.ValidString(preview))
	assert.Equal(t, 120, utf8.RuneCountInString(preview))
	assert.True(t, strings.HasSuffix(preview, "..."))

	assert.Equal(t, "çã", stringPreview("çãos", 2))
	assert.Equal(t, "olá", stringPreview("  olá  ", 10))
}

func TestProtocolFinalizeClearsOverdue(t *testing.T) {
	f := newProtocolFixture(t)
	protocol := f.create(t)

	// Well past the 5 day SLA.
	later := f.clock.now.Add(20 * 24 * time.Hour)
	current, err := f.protocols.GetByID(context.Background(), protocol.ID)
	require.NoError(t, err)
	assert.True(t, current.IsOverdue(later))

	updated, err := f.service.Finalize(context.Background(), protocol.ID, "Poda executada", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ProtocolStatusFinalized, updated.Status)
	require.NotNil(t, updated.FinalizedAt)
	require.NotNil(t, updated.FinalAnswer)
	assert.Equal(t, "Poda executada", *updated.FinalAnswer)
	assert.False(t, updated.IsOverdue(later))

	_, err = f.service.Finalize(context.Background(), protocol.ID, "de novo", nil)
	assert.True(t, util.IsInvalidState(err))
}

func TestProtocolGetByNumber(t *testing.T) {
	f := newProtocolFixture(t)
	protocol := f.create(t)

	details, err := f.service.GetByNumber(context.Background(), protocol.Number)
	require.NoError(t, err)
	assert.Equal(t, protocol.ID, details.Protocol.ID)
	assert.Len(t, details.Data, 1)
	assert.Len(t, details.History, 1)

	_, err = f.service.GetByNumber(context.Background(), "#20990001")
	assert.True(t, util.IsNotFound(err))
}

func TestProtocolStatistics(t *testing.T) {
	f := newProtocolFixture(t)
	first := f.create(t)
	f.create(t)

	_, err := f.service.Finalize(context.Background(), first.ID, "ok", nil)
	require.NoError(t, err)

	stats, err := f.service.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.ByStatus[domain.ProtocolStatusOpen])
	assert.Equal(t, int64(1), stats.ByStatus[domain.ProtocolStatusFinalized])
	assert.Equal(t, int64(1), stats.ByStatusLabel["Finalizado"])
}
