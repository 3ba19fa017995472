package application

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oksasatya/go-library-management/internal/domain/apperror"
	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/domain/repository"
)

// memStore is an in-memory stand-in for the postgres repositories. Do runs
// one unit of work at a time and restores the snapshot when fn fails.
type memStore struct {
	tx     sync.Mutex
	mu     sync.Mutex
	books  map[int64]entity.Book
	users  map[int64]entity.User
	loans  map[int64]entity.Loan
	nextID int64

	failDecrement bool
}

func newMemStore() *memStore {
	return &memStore{
		books: map[int64]entity.Book{},
		users: map[int64]entity.User{},
		loans: map[int64]entity.Loan{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addBook(title, author string, total, available int) entity.Book {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := entity.Book{ID: m.id(), Title: title, Author: author, TotalCopies: total, AvailableCopies: available, CreatedAt: time.Now()}
	m.books[b.ID] = b
	return b
}

func (m *memStore) addUser(name, email string, role entity.Role) entity.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := entity.User{ID: m.id(), Name: name, Email: email, Role: role, PasswordHash: "x:y", CreatedAt: time.Now()}
	m.users[u.ID] = u
	return u
}

func (m *memStore) book(id int64) entity.Book {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.books[id]
}

func (m *memStore) loanCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.loans)
}

func (m *memStore) Do(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	m.tx.Lock()
	defer m.tx.Unlock()

	m.mu.Lock()
	books, users, loans := clone(m.books), clone(m.users), clone(m.loans)
	m.mu.Unlock()

	err := fn(ctx, m.repos())
	if err != nil {
		m.mu.Lock()
		m.books, m.users, m.loans = books, users, loans
		m.mu.Unlock()
	}
	return err
}

func (m *memStore) repos() repository.Repositories {
	return repository.Repositories{Books: memBooks{m}, Users: memUsers{m}, Loans: memLoans{m}}
}

func clone[K comparable, V any](src map[K]V) map[K]V {
	out := make(map[K]V, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

type memBooks struct{ m *memStore }

func (r memBooks) sorted(keep func(entity.Book) bool) []entity.Book {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []entity.Book{}
	for _, b := range r.m.books {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

func (r memBooks) ListAll(ctx context.Context) ([]entity.Book, error) {
	return r.sorted(func(entity.Book) bool { return true }), nil
}

func (r memBooks) ListAvailable(ctx context.Context) ([]entity.Book, error) {
	return r.sorted(func(b entity.Book) bool { return b.AvailableCopies > 0 }), nil
}

func (r memBooks) Search(ctx context.Context, term string) ([]entity.Book, error) {
	t := strings.ToLower(term)
	return r.sorted(func(b entity.Book) bool {
		return strings.Contains(strings.ToLower(b.Title), t) ||
			strings.Contains(strings.ToLower(b.Author), t) ||
			strings.Contains(strings.ToLower(b.Genre), t)
	}), nil
}

func (r memBooks) GetByID(ctx context.Context, id int64) (*entity.Book, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	b, ok := r.m.books[id]
	if !ok {
		return nil, apperror.NotFound("book", id)
	}
	return &b, nil
}

func (r memBooks) ListByIDs(ctx context.Context, ids []int64) ([]entity.Book, error) {
	want := map[int64]bool{}
	for _, id := range ids {
		want[id] = true
	}
	return r.sorted(func(b entity.Book) bool { return want[b.ID] }), nil
}

func (r memBooks) GetLowStock(ctx context.Context, threshold int) ([]entity.Book, error) {
	out := r.sorted(func(b entity.Book) bool { return b.AvailableCopies <= threshold })
	sort.SliceStable(out, func(i, j int) bool { return out[i].AvailableCopies < out[j].AvailableCopies })
	return out, nil
}

func (r memBooks) Create(ctx context.Context, b *entity.Book) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	b.ID = r.m.id()
	b.AvailableCopies = min(b.AvailableCopies, b.TotalCopies)
	b.CreatedAt = time.Now()
	r.m.books[b.ID] = *b
	return nil
}

func (r memBooks) Update(ctx context.Context, b *entity.Book) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.books[b.ID]; !ok {
		return apperror.NotFound("book", b.ID)
	}
	b.AvailableCopies = min(b.AvailableCopies, b.TotalCopies)
	r.m.books[b.ID] = *b
	return nil
}

func (r memBooks) Delete(ctx context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.books[id]; !ok {
		return apperror.NotFound("book", id)
	}
	for _, l := range r.m.loans {
		if l.BookID == id {
			return apperror.ErrConflict
		}
	}
	delete(r.m.books, id)
	return nil
}

func (r memBooks) DecrementAvailable(ctx context.Context, id int64) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	b, ok := r.m.books[id]
	if r.m.failDecrement || !ok || b.AvailableCopies <= 0 {
		return false, nil
	}
	b.AvailableCopies--
	r.m.books[id] = b
	return true, nil
}

func (r memBooks) IncrementAvailable(ctx context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	b, ok := r.m.books[id]
	if !ok {
		return apperror.NotFound("book", id)
	}
	b.AvailableCopies = min(b.AvailableCopies+1, b.TotalCopies)
	r.m.books[id] = b
	return nil
}

type memUsers struct{ m *memStore }

func (r memUsers) Create(ctx context.Context, u *entity.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, x := range r.m.users {
		if x.Email == u.Email {
			return apperror.ErrConflict
		}
	}
	u.ID = r.m.id()
	u.CreatedAt = time.Now()
	r.m.users[u.ID] = *u
	return nil
}

func (r memUsers) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return &u, nil
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.Email == strings.ToLower(email) {
			return &u, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (r memUsers) ListAll(ctx context.Context) ([]entity.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]entity.User, 0, len(r.m.users))
	for _, u := range r.m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memUsers) Update(ctx context.Context, u *entity.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, ok := r.m.users[u.ID]
	if !ok {
		return apperror.NotFound("user", u.ID)
	}
	cur.Name, cur.Email, cur.Role = u.Name, u.Email, u.Role
	r.m.users[u.ID] = cur
	return nil
}

type memLoans struct{ m *memStore }

func (r memLoans) Insert(ctx context.Context, l *entity.Loan) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	l.ID = r.m.id()
	l.LoanedAt = time.Now().UTC()
	r.m.loans[l.ID] = *l
	return nil
}

func (r memLoans) GetByID(ctx context.Context, id int64) (*entity.Loan, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	l, ok := r.m.loans[id]
	if !ok {
		return nil, apperror.NotFound("loan", id)
	}
	return &l, nil
}

func (r memLoans) MarkReturned(ctx context.Context, id int64) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	l, ok := r.m.loans[id]
	if !ok || l.Status != entity.LoanActive {
		return false, nil
	}
	now := time.Now().UTC()
	l.Status = entity.LoanReturned
	l.ReturnedAt = &now
	r.m.loans[id] = l
	return true, nil
}

func (r memLoans) List(ctx context.Context, f repository.LoanFilter) ([]entity.LoanView, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []entity.LoanView{}
	for _, l := range r.m.loans {
		if f.UserID != nil && l.UserID != *f.UserID {
			continue
		}
		if f.ActiveOnly && l.Status != entity.LoanActive {
			continue
		}
		out = append(out, entity.LoanView{
			Loan:      l,
			BookTitle: r.m.books[l.BookID].Title,
			UserName:  r.m.users[l.UserID].Name,
			UserEmail: r.m.users[l.UserID].Email,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memLoans) countActive(userID *int64) int64 {
	views, _ := r.List(context.Background(), repository.LoanFilter{UserID: userID, ActiveOnly: true})
	return int64(len(views))
}

type memStats struct{ m *memStore }

func (s memStats) Snapshot(ctx context.Context, activeLoansOf *int64) entity.Stats {
	s.m.mu.Lock()
	users, books := int64(len(s.m.users)), int64(len(s.m.books))
	s.m.mu.Unlock()
	return entity.Stats{Users: users, Books: books, ActiveLoans: memLoans{s.m}.countActive(activeLoansOf)}
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []any
	err    error
}

func (p *recordingPublisher) PublishJSON(ctx context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, body)
	return p.err
}

func (p *recordingPublisher) all() []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]any(nil), p.events...)
}

var errBoom = errors.New("boom")
