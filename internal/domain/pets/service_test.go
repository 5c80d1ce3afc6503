package pets

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"pawfect-match/internal/ports/blob"
	"pawfect-match/internal/ports/storage"
)

// -------------------------
// Fakes
// -------------------------

type testRepo struct {
	byID  map[string]Pet
	order []string
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Pet{}}
}

func (r *testRepo) Create(ctx context.Context, p Pet) error {
	for _, existing := range r.byID {
		if existing.Code == p.Code {
			return storage.ErrDuplicate
		}
	}
	r.byID[p.ID] = p
	r.order = append(r.order, p.ID)
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Pet, error) {
	p, ok := r.byID[id]
	if !ok {
		return Pet{}, storage.ErrNotFound
	}
	return p, nil
}

func (r *testRepo) Update(ctx context.Context, p Pet) error {
	cur, ok := r.byID[p.ID]
	if !ok {
		return storage.ErrNotFound
	}
	cur.Name, cur.Breed, cur.Age, cur.Description, cur.Image, cur.UpdatedAt = p.Name, p.Breed, p.Age, p.Description, p.Image, p.UpdatedAt
	r.byID[p.ID] = cur
	return nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return storage.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *testRepo) MarkAdopted(ctx context.Context, id string) error {
	p, ok := r.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	p.Adopted = true
	r.byID[id] = p
	return nil
}

func (r *testRepo) list(keep func(Pet) bool) []Pet {
	out := make([]Pet, 0)
	for _, id := range r.order {
		if p, ok := r.byID[id]; ok && keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func (r *testRepo) ListAll(ctx context.Context) ([]Pet, error) {
	return r.list(func(Pet) bool { return true }), nil
}

func (r *testRepo) ListAvailable(ctx context.Context) ([]Pet, error) {
	return r.list(func(p Pet) bool { return !p.Adopted }), nil
}

// requests por mascota
type testPurger struct {
	byPet map[string]int64
	err   error
}

func (p *testPurger) DeleteByPet(ctx context.Context, petID string) (int64, error) {
	if p.err != nil {
		return 0, p.err
	}
	n := p.byPet[petID]
	delete(p.byPet, petID)
	return n, nil
}

// atomicTx deshace repo y purger si fn falla.
type atomicTx struct {
	repo   *testRepo
	purger *testPurger
}

func (t atomicTx) Atomic() bool { return true }

func (t atomicTx) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	pets := map[string]Pet{}
	for k, v := range t.repo.byID {
		pets[k] = v
	}
	reqs := map[string]int64{}
	for k, v := range t.purger.byPet {
		reqs[k] = v
	}
	if err := fn(ctx); err != nil {
		t.repo.byID = pets
		t.purger.byPet = reqs
		return err
	}
	return nil
}

type testBlobs struct {
	stored  map[string]string
	deleted []string
	n       int
}

func (b *testBlobs) Put(ctx context.Context, obj blob.Object) (string, error) {
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return "", err
	}
	b.n++
	ref := "/uploads/" + obj.Filename + "-" + string(rune('0'+b.n))
	b.stored[ref] = string(data)
	return ref, nil
}

func (b *testBlobs) Delete(ctx context.Context, ref string) error {
	delete(b.stored, ref)
	b.deleted = append(b.deleted, ref)
	return nil
}

type countingCascade struct{ total int64 }

func (c *countingCascade) ObserveCascade(n int64) { c.total += n }

func validInput() CreateInput {
	return CreateInput{Name: "Rex", Breed: "Labrador", Age: "2 years", Description: "Friendly"}
}

// -------------------------
// Tests
// -------------------------

func TestService_Create_GeneratesCodeAndDefaults(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, Options{})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	p1, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	p2, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if p1.Adopted {
		t.Fatalf("new pet must not be adopted")
	}
	if !strings.HasPrefix(p1.Code, "PET-") || len(p1.Code) != len("PET-")+26 {
		t.Fatalf("unexpected code %q", p1.Code)
	}
	if p1.Code == p2.Code || p1.ID == p2.ID {
		t.Fatalf("codes and ids must be unique even within the same instant")
	}
	if p1.Code >= p2.Code {
		t.Fatalf("codes must be time-ordered: %s >= %s", p1.Code, p2.Code)
	}
}

func TestService_Create_RequiresAllFields(t *testing.T) {
	svc := NewService(newTestRepo(), Options{})

	for _, mutate := range []func(*CreateInput){
		func(in *CreateInput) { in.Name = " " },
		func(in *CreateInput) { in.Breed = "" },
		func(in *CreateInput) { in.Age = "" },
		func(in *CreateInput) { in.Description = "" },
	} {
		in := validInput()
		mutate(&in)
		if _, err := svc.Create(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	}
}

func TestService_Create_StoresImage(t *testing.T) {
	blobs := &testBlobs{stored: map[string]string{}}
	svc := NewService(newTestRepo(), Options{Blobs: blobs})

	in := validInput()
	in.Image = &blob.Object{Filename: "rex.png", Body: strings.NewReader("png-bytes")}
	p, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Image == "" || blobs.stored[p.Image] != "png-bytes" {
		t.Fatalf("image reference not stored: %+v", p)
	}
}

func TestService_Update_PartialAndImmutableFields(t *testing.T) {
	repo := newTestRepo()
	blobs := &testBlobs{stored: map[string]string{}}
	svc := NewService(repo, Options{Blobs: blobs})
	ctx := context.Background()

	in := validInput()
	in.Image = &blob.Object{Filename: "old.png", Body: strings.NewReader("old")}
	p, _ := svc.Create(ctx, in)
	_ = svc.MarkAdopted(ctx, p.ID)

	name := "  Rexy "
	got, err := svc.Update(ctx, p.ID, UpdateInput{
		Name:  &name,
		Image: &blob.Object{Filename: "new.png", Body: strings.NewReader("new")},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "Rexy" || got.Breed != "Labrador" {
		t.Fatalf("partial update failed: %+v", got)
	}
	if got.ID != p.ID || got.Code != p.Code {
		t.Fatalf("id/code must be immutable")
	}
	stored := repo.byID[p.ID]
	if !stored.Adopted {
		t.Fatalf("update must not clear adopted")
	}
	if len(blobs.deleted) != 1 || blobs.deleted[0] != p.Image {
		t.Fatalf("old image must be removed, deleted=%v", blobs.deleted)
	}

	empty := ""
	if _, err := svc.Update(ctx, p.ID, UpdateInput{Breed: &empty}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Update(ctx, "missing", UpdateInput{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_ListAvailable_ExcludesAdopted(t *testing.T) {
	svc := NewService(newTestRepo(), Options{})
	ctx := context.Background()

	a, _ := svc.Create(ctx, validInput())
	b, _ := svc.Create(ctx, validInput())
	if err := svc.MarkAdopted(ctx, a.ID); err != nil {
		t.Fatalf("mark adopted: %v", err)
	}

	avail, _ := svc.ListAvailable(ctx)
	if len(avail) != 1 || avail[0].ID != b.ID {
		t.Fatalf("expected only %s available, got %+v", b.ID, avail)
	}
	all, _ := svc.ListAll(ctx)
	if len(all) != 2 || all[0].ID != a.ID {
		t.Fatalf("ListAll must keep creation order, got %+v", all)
	}

	if err := svc.MarkAdopted(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_Delete_Cascades(t *testing.T) {
	repo := newTestRepo()
	purger := &testPurger{byPet: map[string]int64{}}
	blobs := &testBlobs{stored: map[string]string{}}
	obs := &countingCascade{}
	svc := NewService(repo, Options{Purger: purger, Blobs: blobs, Observer: obs})
	ctx := context.Background()

	in := validInput()
	in.Image = &blob.Object{Filename: "rex.png", Body: strings.NewReader("x")}
	p, _ := svc.Create(ctx, in)
	purger.byPet[p.ID] = 3

	if err := svc.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := repo.byID[p.ID]; ok {
		t.Fatalf("pet must be gone")
	}
	if _, ok := purger.byPet[p.ID]; ok {
		t.Fatalf("requests must be gone")
	}
	if obs.total != 3 {
		t.Fatalf("expected 3 cascaded, got %d", obs.total)
	}
	if len(blobs.stored) != 0 {
		t.Fatalf("image must be removed after delete")
	}

	if err := svc.Delete(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_Delete_NonAtomicCascadeFailure(t *testing.T) {
	repo := newTestRepo()
	purger := &testPurger{byPet: map[string]int64{}, err: errors.New("db down")}
	svc := NewService(repo, Options{Purger: purger})
	ctx := context.Background()

	p, _ := svc.Create(ctx, validInput())
	purger.byPet[p.ID] = 2

	err := svc.Delete(ctx, p.ID)
	var ce *CascadeError
	if !errors.As(err, &ce) || !errors.Is(err, ErrCascadeIncomplete) || ce.PetID != p.ID {
		t.Fatalf("expected CascadeError, got %v", err)
	}
	if _, ok := repo.byID[p.ID]; ok {
		t.Fatalf("non-atomic: pet is already deleted")
	}
}

func TestService_Delete_AtomicCascadeFailureRollsBack(t *testing.T) {
	repo := newTestRepo()
	purger := &testPurger{byPet: map[string]int64{}}
	svc := NewService(repo, Options{Purger: purger, Tx: atomicTx{repo: repo, purger: purger}})
	ctx := context.Background()

	p, _ := svc.Create(ctx, validInput())
	purger.byPet[p.ID] = 2
	purger.err = errors.New("db down")

	err := svc.Delete(ctx, p.ID)
	if err == nil || errors.Is(err, ErrCascadeIncomplete) {
		t.Fatalf("atomic failure must be a plain fault, got %v", err)
	}
	if _, ok := repo.byID[p.ID]; !ok {
		t.Fatalf("atomic failure must leave the pet in place")
	}
	if purger.byPet[p.ID] != 2 {
		t.Fatalf("atomic failure must leave requests in place")
	}
}
