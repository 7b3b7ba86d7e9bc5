package library_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"campushive/model"
	checkoutrepo "campushive/repository/checkout"
	"campushive/service/library"

	"github.com/stretchr/testify/require"
)

type storeMock struct {
	checkoutFn    func(ctx context.Context, bookCode, rollNo string, userID int64, deadline time.Time) (*model.Checkout, error)
	returnFn      func(ctx context.Context, id int64) (*model.Checkout, error)
	listAllFn     func(ctx context.Context) ([]model.Checkout, error)
	listByUserFn  func(ctx context.Context, userID int64) ([]model.Checkout, error)
	listOverdueFn func(ctx context.Context, now time.Time) ([]model.Checkout, error)
}

func (m *storeMock) Checkout(ctx context.Context, bookCode, rollNo string, userID int64, deadline time.Time) (*model.Checkout, error) {
	return m.checkoutFn(ctx, bookCode, rollNo, userID, deadline)
}
func (m *storeMock) Return(ctx context.Context, id int64) (*model.Checkout, error) {
	return m.returnFn(ctx, id)
}
func (m *storeMock) ListAll(ctx context.Context) ([]model.Checkout, error) { return m.listAllFn(ctx) }
func (m *storeMock) ListByUser(ctx context.Context, userID int64) ([]model.Checkout, error) {
	return m.listByUserFn(ctx, userID)
}
func (m *storeMock) ListOverdue(ctx context.Context, now time.Time) ([]model.Checkout, error) {
	return m.listOverdueFn(ctx, now)
}

type booksMock struct {
	byCodeFn func(ctx context.Context, code string) (*model.Book, error)
}

func (m *booksMock) ByCode(ctx context.Context, code string) (*model.Book, error) {
	return m.byCodeFn(ctx, code)
}

type borrowersMock struct {
	byRollNoFn func(ctx context.Context, rollNo string) (*model.User, error)
}

func (m *borrowersMock) ByRollNo(ctx context.Context, rollNo string) (*model.User, error) {
	return m.byRollNoFn(ctx, rollNo)
}

type calendarMock struct {
	createFn func(ctx context.Context, userID int64, title string, date time.Time, eventType, description string) (*model.CalendarEvent, error)
}

func (m *calendarMock) Create(ctx context.Context, userID int64, title string, date time.Time, eventType, description string) (*model.CalendarEvent, error) {
	if m.createFn == nil {
		return &model.CalendarEvent{ID: 1, UserID: userID, EventTitle: title, EventDate: date, EventType: eventType}, nil
	}
	return m.createFn(ctx, userID, title, date, eventType, description)
}

type notifierMock struct {
	sent chan string
	err  error
}

func (m *notifierMock) SendCheckoutConfirmation(ctx context.Context, email, name string, book model.Book, co model.Checkout) error {
	if m.sent != nil {
		m.sent <- email
	}
	return m.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func futureDeadline() time.Time { return time.Now().Add(7 * 24 * time.Hour) }

func testBook(avail int64) *model.Book {
	return &model.Book{
		ID: 1, Title: "Intro to Algorithms", ISBN: "978-0262", BookCode: "LIB001",
		Quantity: 2, AvailableQuantity: avail, Available: avail > 0,
	}
}

func testStudent() *model.User {
	return &model.User{ID: 7, Name: "Ada", Email: "ada@campus.edu", RollNo: "R1001", Role: model.RoleStudent}
}

func TestCheckout_Success(t *testing.T) {
	deadline := futureDeadline()
	sent := make(chan string, 1)

	store := &storeMock{
		checkoutFn: func(ctx context.Context, bookCode, rollNo string, userID int64, d time.Time) (*model.Checkout, error) {
			require.Equal(t, "LIB001", bookCode)
			require.Equal(t, "R1001", rollNo)
			require.Equal(t, int64(7), userID)
			return &model.Checkout{ID: 11, BookCode: bookCode, StudentRollNo: rollNo, StudentUserID: userID, CheckoutDate: time.Now(), ReturnDeadline: d}, nil
		},
	}
	books := &booksMock{byCodeFn: func(ctx context.Context, code string) (*model.Book, error) {
		return testBook(2), nil
	}}
	borrowers := &borrowersMock{byRollNoFn: func(ctx context.Context, rollNo string) (*model.User, error) {
		return testStudent(), nil
	}}

	svc := library.New(store, books, borrowers, &calendarMock{}, &notifierMock{sent: sent}, testLogger())

	out, err := svc.Checkout(context.Background(), "LIB001", "R1001", deadline)
	require.NoError(t, err)
	require.Equal(t, int64(11), out.Checkout.ID)
	require.False(t, out.Checkout.Returned)
	require.NotNil(t, out.CalendarEvent)
	require.Equal(t, "Return Book: Intro to Algorithms", out.CalendarEvent.EventTitle)

	select {
	case email := <-sent:
		require.Equal(t, "ada@campus.edu", email)
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation was never sent")
	}
}

func TestCheckout_BookNotFound(t *testing.T) {
	books := &booksMock{byCodeFn: func(ctx context.Context, code string) (*model.Book, error) {
		return nil, sql.ErrNoRows
	}}
	svc := library.New(&storeMock{}, books, &borrowersMock{}, &calendarMock{}, &notifierMock{}, testLogger())

	_, err := svc.Checkout(context.Background(), "NOPE", "R1001", futureDeadline())
	require.Error(t, err)
	require.Equal(t, library.ErrBookNotFound, library.Code(err))
}

func TestCheckout_NoCopies(t *testing.T) {
	books := &booksMock{byCodeFn: func(ctx context.Context, code string) (*model.Book, error) {
		return testBook(0), nil
	}}
	svc := library.New(&storeMock{}, books, &borrowersMock{}, &calendarMock{}, &notifierMock{}, testLogger())

	_, err := svc.Checkout(context.Background(), "LIB001", "R1001", futureDeadline())
	require.Error(t, err)
	require.Equal(t, library.ErrNoCopies, library.Code(err))
}

func TestCheckout_StudentNotFound(t *testing.T) {
	books := &booksMock{byCodeFn: func(ctx context.Context, code string) (*model.Book, error) {
		return testBook(1), nil
	}}
	borrowers := &borrowersMock{byRollNoFn: func(ctx context.Context, rollNo string) (*model.User, error) {
		return nil, sql.ErrNoRows
	}}
	svc := library.New(&storeMock{}, books, borrowers, &calendarMock{}, &notifierMock{}, testLogger())

	_, err := svc.Checkout(context.Background(), "LIB001", "R9999", futureDeadline())
	require.Error(t, err)
	require.Equal(t, library.ErrStudentNotFound, library.Code(err))
}

func TestCheckout_PastDeadline(t *testing.T) {
	svc := library.New(&storeMock{}, &booksMock{}, &borrowersMock{}, &calendarMock{}, &notifierMock{}, testLogger())

	_, err := svc.Checkout(context.Background(), "LIB001", "R1001", time.Now().Add(-time.Hour))
	require.Error(t, err)
	require.Equal(t, library.ErrInvalidDeadline, library.Code(err))
}

func TestCheckout_LostRace(t *testing.T) {
	// The pre-check saw a copy, but the store's guarded decrement lost it.
	store := &storeMock{
		checkoutFn: func(ctx context.Context, bookCode, rollNo string, userID int64, d time.Time) (*model.Checkout, error) {
			return nil, checkoutrepo.ErrNoCopies
		},
	}
	books := &booksMock{byCodeFn: func(ctx context.Context, code string) (*model.Book, error) {
		return testBook(1), nil
	}}
	borrowers := &borrowersMock{byRollNoFn: func(ctx context.Context, rollNo string) (*model.User, error) {
		return testStudent(), nil
	}}
	svc := library.New(store, books, borrowers, &calendarMock{}, &notifierMock{}, testLogger())

	_, err := svc.Checkout(context.Background(), "LIB001", "R1001", futureDeadline())
	require.Error(t, err)
	require.Equal(t, library.ErrNoCopies, library.Code(err))
}

func TestCheckout_CalendarFailureDoesNotFail(t *testing.T) {
	store := &storeMock{
		checkoutFn: func(ctx context.Context, bookCode, rollNo string, userID int64, d time.Time) (*model.Checkout, error) {
			return &model.Checkout{ID: 12, BookCode: bookCode}, nil
		},
	}
	books := &booksMock{byCodeFn: func(ctx context.Context, code string) (*model.Book, error) {
		return testBook(1), nil
	}}
	borrowers := &borrowersMock{byRollNoFn: func(ctx context.Context, rollNo string) (*model.User, error) {
		return testStudent(), nil
	}}
	cal := &calendarMock{createFn: func(ctx context.Context, userID int64, title string, date time.Time, eventType, description string) (*model.CalendarEvent, error) {
		return nil, errors.New("calendar store down")
	}}
	svc := library.New(store, books, borrowers, cal, &notifierMock{}, testLogger())

	out, err := svc.Checkout(context.Background(), "LIB001", "R1001", futureDeadline())
	require.NoError(t, err)
	require.Nil(t, out.CalendarEvent)
	require.Equal(t, int64(12), out.Checkout.ID)
}

func TestCheckout_NotifyFailureDoesNotFail(t *testing.T) {
	sent := make(chan string, 1)
	store := &storeMock{
		checkoutFn: func(ctx context.Context, bookCode, rollNo string, userID int64, d time.Time) (*model.Checkout, error) {
			return &model.Checkout{ID: 13, BookCode: bookCode}, nil
		},
	}
	books := &booksMock{byCodeFn: func(ctx context.Context, code string) (*model.Book, error) {
		return testBook(1), nil
	}}
	borrowers := &borrowersMock{byRollNoFn: func(ctx context.Context, rollNo string) (*model.User, error) {
		return testStudent(), nil
	}}
	svc := library.New(store, books, borrowers, &calendarMock{}, &notifierMock{sent: sent, err: errors.New("gateway down")}, testLogger())

	out, err := svc.Checkout(context.Background(), "LIB001", "R1001", futureDeadline())
	require.NoError(t, err)
	require.Equal(t, int64(13), out.Checkout.ID)

	select {
	case <-sent:
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation was never attempted")
	}
}

// fakeStore enforces the same conditional-decrement rule the SQL store does,
// so concurrent checkouts for the last copy cannot both win.
type fakeStore struct {
	storeMock
	mu    sync.Mutex
	avail int64
	next  int64
}

func (f *fakeStore) Checkout(ctx context.Context, bookCode, rollNo string, userID int64, deadline time.Time) (*model.Checkout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.avail <= 0 {
		return nil, checkoutrepo.ErrNoCopies
	}
	f.avail--
	f.next++
	return &model.Checkout{ID: f.next, BookCode: bookCode, StudentRollNo: rollNo, StudentUserID: userID, ReturnDeadline: deadline}, nil
}

func TestCheckout_ConcurrentLastCopy(t *testing.T) {
	store := &fakeStore{avail: 1}
	books := &booksMock{byCodeFn: func(ctx context.Context, code string) (*model.Book, error) {
		return testBook(1), nil
	}}
	borrowers := &borrowersMock{byRollNoFn: func(ctx context.Context, rollNo string) (*model.User, error) {
		return testStudent(), nil
	}}
	svc := library.New(store, books, borrowers, &calendarMock{}, &notifierMock{}, testLogger())

	deadline := futureDeadline()
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := svc.Checkout(context.Background(), "LIB001", "R1001", deadline)
			results <- err
		}()
	}

	var ok, noCopies int
	for i := 0; i < 2; i++ {
		err := <-results
		switch {
		case err == nil:
			ok++
		case library.Code(err) == library.ErrNoCopies:
			noCopies++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 1, noCopies)
}

func TestReturn_Success(t *testing.T) {
	now := time.Now()
	store := &storeMock{
		returnFn: func(ctx context.Context, id int64) (*model.Checkout, error) {
			require.Equal(t, int64(11), id)
			return &model.Checkout{ID: id, BookCode: "LIB001", Returned: true, ReturnedDate: &now}, nil
		},
	}
	svc := library.New(store, &booksMock{}, &borrowersMock{}, &calendarMock{}, &notifierMock{}, testLogger())

	co, err := svc.Return(context.Background(), 11)
	require.NoError(t, err)
	require.True(t, co.Returned)
	require.NotNil(t, co.ReturnedDate)
}

func TestReturn_NotFound(t *testing.T) {
	store := &storeMock{
		returnFn: func(ctx context.Context, id int64) (*model.Checkout, error) {
			return nil, sql.ErrNoRows
		},
	}
	svc := library.New(store, &booksMock{}, &borrowersMock{}, &calendarMock{}, &notifierMock{}, testLogger())

	_, err := svc.Return(context.Background(), 404)
	require.Error(t, err)
	require.Equal(t, library.ErrCheckoutNotFound, library.Code(err))
}

func TestReturn_AlreadyReturned(t *testing.T) {
	store := &storeMock{
		returnFn: func(ctx context.Context, id int64) (*model.Checkout, error) {
			return nil, checkoutrepo.ErrAlreadyReturned
		},
	}
	svc := library.New(store, &booksMock{}, &borrowersMock{}, &calendarMock{}, &notifierMock{}, testLogger())

	_, err := svc.Return(context.Background(), 11)
	require.Error(t, err)
	require.Equal(t, library.ErrAlreadyReturned, library.Code(err))
}

func TestList_RoleFiltering(t *testing.T) {
	var allCalled, byUserCalled bool
	store := &storeMock{
		listAllFn: func(ctx context.Context) ([]model.Checkout, error) {
			allCalled = true
			return nil, nil
		},
		listByUserFn: func(ctx context.Context, userID int64) ([]model.Checkout, error) {
			byUserCalled = true
			require.Equal(t, int64(7), userID)
			return nil, nil
		},
	}
	svc := library.New(store, &booksMock{}, &borrowersMock{}, &calendarMock{}, &notifierMock{}, testLogger())

	_, err := svc.List(context.Background(), 7, model.RoleStudent)
	require.NoError(t, err)
	require.True(t, byUserCalled)
	require.False(t, allCalled)

	_, err = svc.List(context.Background(), 7, model.RoleStaff)
	require.NoError(t, err)
	require.True(t, allCalled)
}
