package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connecta/citizen-service/internal/domain"
	"github.com/connecta/citizen-service/pkg/util"
)

type fakeCategoryRepo struct {
	categories map[string]*domain.Category
	nextID     int
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: make(map[string]*domain.Category)}
}

func (r *fakeCategoryRepo) Create(_ context.Context, category *domain.Category) error {
	r.nextID++
	category.ID = fmt.Sprintf("cat-%d", r.nextID)
	clone := *category
	r.categories[category.ID] = &clone
	return nil
}

func (r *fakeCategoryRepo) Update(_ context.Context, category *domain.Category) error {
	if _, ok := r.categories[category.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *category
	r.categories[category.ID] = &clone
	return nil
}

func (r *fakeCategoryRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.categories[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.categories, id)
	return nil
}

func (r *fakeCategoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	category, ok := r.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *category
	return &clone, nil
}

func (r *fakeCategoryRepo) List(context.Context) ([]domain.Category, error) {
	var result []domain.Category
	for _, c := range r.categories {
		result = append(result, *c)
	}
	return result, nil
}

func (r *fakeCategoryRepo) ListActive(ctx context.Context) ([]domain.Category, error) {
	all, _ := r.List(ctx)
	var result []domain.Category
	for _, c := range all {
		if c.IsActive {
			result = append(result, c)
		}
	}
	return result, nil
}

func (r *fakeCategoryRepo) ExistsByName(_ context.Context, name, excludeID string) (bool, error) {
	for _, c := range r.categories {
		if c.Name == name && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

type catalogFixture struct {
	service    *CatalogService
	categories *fakeCategoryRepo
	services   *fakeCatalogRepo
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()

	categories := newFakeCategoryRepo()
	services := &fakeCatalogRepo{services: make(map[string]*domain.CatalogService)}
	svc := NewCatalogService(CatalogDependencies{
		CategoryRepo: categories,
		ServiceRepo:  services,
		TxManager:    fakeTxManager{},
	})
	return &catalogFixture{service: svc, categories: categories, services: services}
}

func TestCreateCategoryDefaults(t *testing.T) {
	f := newCatalogFixture(t)

	category, err := f.service.CreateCategory(context.Background(), CategoryInput{Name: "  Infraestrutura  "})
	require.NoError(t, err)
	assert.Equal(t, "Infraestrutura", category.Name)
	assert.Equal(t, "#4CAF50", category.Color)
	assert.True(t, category.IsActive)
}

func TestCreateCategoryRejectsDuplicateName(t *testing.T) {
	f := newCatalogFixture(t)

	_, err := f.service.CreateCategory(context.Background(), CategoryInput{Name: "Iluminação"})
	require.NoError(t, err)

	_, err = f.service.CreateCategory(context.Background(), CategoryInput{Name: "Iluminação"})
	require.Error(t, err)
	var domainErr *util.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CONFLICT", domainErr.Code)
}

func TestCreateCategoryRequiresName(t *testing.T) {
	f := newCatalogFixture(t)

	_, err := f.service.CreateCategory(context.Background(), CategoryInput{Name: "   "})
	require.Error(t, err)
}

func TestUpdateCategoryPartial(t *testing.T) {
	f := newCatalogFixture(t)

	category, err := f.service.CreateCategory(context.Background(), CategoryInput{Name: "Meio Ambiente", Icon: "tree"})
	require.NoError(t, err)

	inactive := false
	updated, err := f.service.UpdateCategory(context.Background(), category.ID, CategoryInput{
		Color:    "#2196F3",
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Meio Ambiente", updated.Name)
	assert.Equal(t, "tree", updated.Icon)
	assert.Equal(t, "#2196F3", updated.Color)
	assert.False(t, updated.IsActive)
}

func TestUpdateCategoryNotFound(t *testing.T) {
	f := newCatalogFixture(t)

	_, err := f.service.UpdateCategory(context.Background(), "missing", CategoryInput{Name: "x"})
	assert.True(t, util.IsNotFound(err))
}

func TestCreateServiceWithFields(t *testing.T) {
	f := newCatalogFixture(t)

	category, err := f.service.CreateCategory(context.Background(), CategoryInput{Name: "Obras"})
	require.NoError(t, err)

	svc, err := f.service.CreateService(context.Background(), ServiceInput{
		CategoryID: category.ID,
		Title:      "Tapa-Buraco",
		Fields: []ServiceFieldInput{
			{Kind: domain.FieldKindLocation, Required: true, SortOrder: 1},
			{Kind: domain.FieldKindPhoto, SortOrder: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 7, svc.SLADays)
	assert.True(t, svc.IsActive)
	require.Len(t, svc.Fields, 2)
	assert.Equal(t, svc.ID, svc.Fields[0].ServiceID)
	assert.Equal(t, []domain.FieldKind{domain.FieldKindLocation}, svc.RequiredFieldKinds())
}

func TestCreateServiceRejectsDuplicateFieldKind(t *testing.T) {
	f := newCatalogFixture(t)

	category, err := f.service.CreateCategory(context.Background(), CategoryInput{Name: "Obras"})
	require.NoError(t, err)

	_, err = f.service.CreateService(context.Background(), ServiceInput{
		CategoryID: category.ID,
		Title:      "Tapa-Buraco",
		Fields: []ServiceFieldInput{
			{Kind: domain.FieldKindLocation},
			{Kind: domain.FieldKindLocation},
		},
	})
	require.Error(t, err)
}

func TestCreateServiceRequiresExistingCategory(t *testing.T) {
	f := newCatalogFixture(t)

	_, err := f.service.CreateService(context.Background(), ServiceInput{
		CategoryID: "missing",
		Title:      "Tapa-Buraco",
	})
	assert.True(t, util.IsNotFound(err))
}

func TestUpdateServiceReplacesFieldsOnlyWhenGiven(t *testing.T) {
	f := newCatalogFixture(t)

	category, err := f.service.CreateCategory(context.Background(), CategoryInput{Name: "Obras"})
	require.NoError(t, err)

	svc, err := f.service.CreateService(context.Background(), ServiceInput{
		CategoryID: category.ID,
		Title:      "Tapa-Buraco",
		Fields:     []ServiceFieldInput{{Kind: domain.FieldKindLocation, Required: true}},
	})
	require.NoError(t, err)

	// Nil field list keeps the existing definitions.
	updated, err := f.service.UpdateService(context.Background(), svc.ID, ServiceInput{SLADays: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, updated.SLADays)
	assert.Len(t, updated.Fields, 1)

	updated, err = f.service.UpdateService(context.Background(), svc.ID, ServiceInput{
		Fields: []ServiceFieldInput{
			{Kind: domain.FieldKindLocation, Required: true},
			{Kind: domain.FieldKindNotes},
		},
	})
	require.NoError(t, err)
	assert.Len(t, updated.Fields, 2)
}

func TestListServicesActiveOnly(t *testing.T) {
	f := newCatalogFixture(t)

	category, err := f.service.CreateCategory(context.Background(), CategoryInput{Name: "Obras"})
	require.NoError(t, err)

	_, err = f.service.CreateService(context.Background(), ServiceInput{CategoryID: category.ID, Title: "Ativo"})
	require.NoError(t, err)
	inactive := false
	_, err = f.service.CreateService(context.Background(), ServiceInput{CategoryID: category.ID, Title: "Inativo", IsActive: &inactive})
	require.NoError(t, err)

	all, err := f.service.ListServices(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := f.service.ListServices(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Ativo", active[0].Title)
}

func TestFieldKindsCatalog(t *testing.T) {
	f := newCatalogFixture(t)

	kinds := f.service.FieldKinds()
	require.Len(t, kinds, 12)
	assert.Equal(t, domain.FieldKindLocation, kinds[0].Kind)
	assert.Equal(t, "Localização", kinds[0].Label)
}
