package mirror_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"taskmirror/internal/mirror"
	"taskmirror/internal/service"
	"taskmirror/internal/testutil"
)

func ids(tasks []service.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func seeded(t *testing.T, idsToSeed ...string) (*testutil.FakeService, *mirror.Synchronizer) {
	t.Helper()
	svc := testutil.NewFakeService()
	svc.NewID = testutil.SequentialIDs("n")
	for _, id := range idsToSeed {
		svc.AddTask(id, "task "+id, service.StatusTodo)
	}
	s := mirror.New(svc)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return svc, s
}

func TestNew_StartsEmptyAndLoading(t *testing.T) {
	s := mirror.New(testutil.NewFakeService())

	if !s.Loading() {
		t.Error("expected loading before first fetch")
	}
	if s.Len() != 0 {
		t.Errorf("expected empty mirror, got %d tasks", s.Len())
	}
}

func TestFetchAll_ReplacesInStoreOrder(t *testing.T) {
	svc, s := seeded(t, "c", "a", "b")

	if s.Loading() {
		t.Error("expected loading false after fetch")
	}
	if got := ids(s.Tasks()); !reflect.DeepEqual(got, []string{"c", "a", "b"}) {
		t.Errorf("expected [c a b], got %v", got)
	}

	// Store changes behind our back; a refetch replaces everything.
	if err := svc.Delete(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}
	svc.AddTask("d", "task d", service.StatusDone)

	if err := s.FetchAll(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := ids(s.Tasks()); !reflect.DeepEqual(got, []string{"c", "b", "d"}) {
		t.Errorf("expected [c b d], got %v", got)
	}
}

func TestFetchAll_LoadingTrueWhileInFlight(t *testing.T) {
	svc := testutil.NewFakeService()
	s := mirror.New(svc)

	var during bool
	svc.BeforeList = func() { during = s.Loading() }

	if err := s.FetchAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !during {
		t.Error("expected loading true while list is in flight")
	}
	if s.Loading() {
		t.Error("expected loading false after list returned")
	}
}

func TestFetchAll_FailureKeepsLoadingAndMirror(t *testing.T) {
	svc, s := seeded(t, "a", "b")
	boom := errors.New("connection refused")
	svc.ListErr = boom

	err := s.FetchAll(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
	if !s.Loading() {
		t.Error("expected loading to stay true after a failed fetch")
	}
	if got := ids(s.Tasks()); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("expected mirror unchanged, got %v", got)
	}
}

func TestFetchAll_DuplicateIDsKeepFirstPosition(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.Put(service.Task{ID: "a", Title: "old"})
	svc.Put(service.Task{ID: "b", Title: "b"})
	svc.Put(service.Task{ID: "a", Title: "new"})
	s := mirror.New(svc)

	if err := s.FetchAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	tasks := s.Tasks()
	if got := ids(tasks); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("expected [a b], got %v", got)
	}
	if tasks[0].Title != "new" {
		t.Errorf("expected last value for duplicate, got %q", tasks[0].Title)
	}
}

func TestAdd_AppendsReturnedRecord(t *testing.T) {
	_, s := seeded(t, "a", "b")

	task, err := s.Add(context.Background(), service.TaskPayload{Title: "Write report"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if task.ID != "n1" {
		t.Errorf("expected store-assigned id n1, got %q", task.ID)
	}
	if task.Status != service.StatusTodo {
		t.Errorf("expected store default status todo, got %q", task.Status)
	}
	if got := ids(s.Tasks()); !reflect.DeepEqual(got, []string{"a", "b", "n1"}) {
		t.Errorf("expected [a b n1], got %v", got)
	}
}

func TestAdd_FailureLeavesMirrorUnchanged(t *testing.T) {
	svc, s := seeded(t, "a")
	svc.CreateErr = errors.New("boom")

	if _, err := s.Add(context.Background(), service.TaskPayload{Title: "x"}); err == nil {
		t.Fatal("expected error")
	}
	if got := ids(s.Tasks()); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("expected [a], got %v", got)
	}
}

func TestAdd_AlreadyMirroredIDReplacesInPlace(t *testing.T) {
	svc, s := seeded(t, "a", "b")
	svc.NewID = func() string { return "a" }

	if _, err := s.Add(context.Background(), service.TaskPayload{Title: "again"}); err != nil {
		t.Fatal(err)
	}
	tasks := s.Tasks()
	if got := ids(tasks); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("expected [a b], got %v", got)
	}
	if tasks[0].Title != "again" {
		t.Errorf("expected replaced record, got %q", tasks[0].Title)
	}
}

func TestEdit_ReplacesInPlace(t *testing.T) {
	_, s := seeded(t, "a", "b", "c")
	done := service.StatusDone

	got, err := s.Edit(context.Background(), "b", service.TaskUpdate{Status: &done})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got.Status != service.StatusDone || got.ID != "b" {
		t.Errorf("expected returned record b(done), got %+v", got)
	}

	tasks := s.Tasks()
	if order := ids(tasks); !reflect.DeepEqual(order, []string{"a", "b", "c"}) {
		t.Fatalf("expected order preserved, got %v", order)
	}
	if tasks[1].Status != service.StatusDone {
		t.Errorf("expected b done, got %q", tasks[1].Status)
	}
	if tasks[0].Status != service.StatusTodo || tasks[2].Status != service.StatusTodo {
		t.Error("other records must be unchanged")
	}
}

func TestEdit_UnmirroredIDIsNoOp(t *testing.T) {
	svc, s := seeded(t, "a")
	// Present in the store but not in the mirror.
	svc.AddTask("z", "hidden", service.StatusTodo)
	title := "renamed"

	got, err := s.Edit(context.Background(), "z", service.TaskUpdate{Title: &title})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got.Title != "renamed" {
		t.Errorf("expected returned record, got %+v", got)
	}
	if order := ids(s.Tasks()); !reflect.DeepEqual(order, []string{"a"}) {
		t.Errorf("expected mirror unchanged, got %v", order)
	}
}

func TestEdit_FailureLeavesMirrorUnchanged(t *testing.T) {
	svc, s := seeded(t, "a")
	svc.UpdateErr = errors.New("boom")
	title := "x"

	if _, err := s.Edit(context.Background(), "a", service.TaskUpdate{Title: &title}); err == nil {
		t.Fatal("expected error")
	}
	task, _ := s.Get("a")
	if task.Title != "task a" {
		t.Errorf("expected title unchanged, got %q", task.Title)
	}
}

type renamingService struct {
	*testutil.FakeService
	newID string
}

func (r renamingService) Update(ctx context.Context, id string, u service.TaskUpdate) (service.Task, error) {
	t, err := r.FakeService.Update(ctx, id, u)
	t.ID = r.newID
	return t, err
}

func TestEdit_ReturnedIDDiffersKeepsUniqueness(t *testing.T) {
	fake := testutil.NewFakeService()
	for _, id := range []string{"a", "b", "c"} {
		fake.AddTask(id, id, service.StatusTodo)
	}
	s := mirror.New(renamingService{FakeService: fake, newID: "c"})
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Edit(context.Background(), "a", service.TaskUpdate{}); err != nil {
		t.Fatal(err)
	}
	if order := ids(s.Tasks()); !reflect.DeepEqual(order, []string{"c", "b"}) {
		t.Errorf("expected [c b], got %v", order)
	}
}

func TestRemove_DropsAndIsIdempotentOnMirror(t *testing.T) {
	svc, s := seeded(t, "a", "b", "c")

	if err := s.Remove(context.Background(), "b"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if order := ids(s.Tasks()); !reflect.DeepEqual(order, []string{"a", "c"}) {
		t.Fatalf("expected [a c], got %v", order)
	}

	// Second remove: the store no longer has it and reports not found,
	// the mirror stays as it is.
	err := s.Remove(context.Background(), "b")
	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound from store, got %v", err)
	}
	if order := ids(s.Tasks()); !reflect.DeepEqual(order, []string{"a", "c"}) {
		t.Errorf("expected [a c], got %v", order)
	}

	// A store that accepts repeated deletes leaves the mirror unchanged too.
	svc.AddTask("b", "back", service.StatusTodo)
	if err := s.Remove(context.Background(), "b"); err != nil {
		t.Fatal(err)
	}
	if order := ids(s.Tasks()); !reflect.DeepEqual(order, []string{"a", "c"}) {
		t.Errorf("expected [a c], got %v", order)
	}
}

func TestRemove_FailureLeavesMirrorUnchanged(t *testing.T) {
	svc, s := seeded(t, "a")
	svc.DeleteErr = errors.New("boom")

	if err := s.Remove(context.Background(), "a"); err == nil {
		t.Fatal("expected error")
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 task, got %d", s.Len())
	}
}

func TestLifecycleExample(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.NewID = func() string { return "t1" }
	s := mirror.New(svc)
	ctx := context.Background()

	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty, got %d", s.Len())
	}

	if _, err := s.Add(ctx, service.TaskPayload{Title: "Write report"}); err != nil {
		t.Fatal(err)
	}
	want := []service.Task{{ID: "t1", Title: "Write report", Status: service.StatusTodo}}
	if got := s.Tasks(); !reflect.DeepEqual(got, want) {
		t.Fatalf("after add: expected %+v, got %+v", want, got)
	}

	done := service.StatusDone
	if _, err := s.Edit(ctx, "t1", service.TaskUpdate{Status: &done}); err != nil {
		t.Fatal(err)
	}
	want[0].Status = service.StatusDone
	if got := s.Tasks(); !reflect.DeepEqual(got, want) {
		t.Fatalf("after edit: expected %+v, got %+v", want, got)
	}

	if err := s.Remove(ctx, "t1"); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 0 {
		t.Errorf("after remove: expected empty, got %+v", s.Tasks())
	}
}

func TestAt(t *testing.T) {
	_, s := seeded(t, "a", "b")

	if task, ok := s.At(2); !ok || task.ID != "b" {
		t.Errorf("At(2): expected b, got %+v %v", task, ok)
	}
	if _, ok := s.At(0); ok {
		t.Error("At(0) should be out of range")
	}
	if _, ok := s.At(3); ok {
		t.Error("At(3) should be out of range")
	}
}

func TestTasks_ReturnsCopy(t *testing.T) {
	_, s := seeded(t, "a")

	tasks := s.Tasks()
	tasks[0].Title = "mutated"

	if got, _ := s.Get("a"); got.Title != "task a" {
		t.Errorf("mirror must not be affected by caller mutation, got %q", got.Title)
	}
}

func TestSubscribe_NotifiesOnChanges(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.NewID = testutil.SequentialIDs("t")
	s := mirror.New(svc)
	ctx := context.Background()

	var mu sync.Mutex
	var snaps []mirror.Snapshot
	cancel := s.Subscribe(func(snap mirror.Snapshot) {
		mu.Lock()
		snaps = append(snaps, snap)
		mu.Unlock()
	})

	if err := s.FetchAll(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(ctx, service.TaskPayload{Title: "one"}); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	if len(snaps) != 3 {
		t.Fatalf("expected 3 snapshots (loading, loaded, added), got %d", len(snaps))
	}
	if !snaps[0].Loading || snaps[1].Loading {
		t.Errorf("expected loading true then false, got %v then %v", snaps[0].Loading, snaps[1].Loading)
	}
	if len(snaps[2].Tasks) != 1 || snaps[2].Tasks[0].ID != "t1" {
		t.Errorf("expected added snapshot with t1, got %+v", snaps[2].Tasks)
	}
	mu.Unlock()

	cancel()
	if _, err := s.Add(ctx, service.TaskPayload{Title: "two"}); err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(snaps) != 3 {
		t.Errorf("expected no notification after cancel, got %d snapshots", len(snaps))
	}
}

func TestClose_RejectsOperations(t *testing.T) {
	svc, s := seeded(t, "a")
	s.Close()

	if err := s.FetchAll(context.Background()); !errors.Is(err, mirror.ErrClosed) {
		t.Errorf("fetch: expected ErrClosed, got %v", err)
	}
	if _, err := s.Add(context.Background(), service.TaskPayload{Title: "x"}); !errors.Is(err, mirror.ErrClosed) {
		t.Errorf("add: expected ErrClosed, got %v", err)
	}
	if err := s.Remove(context.Background(), "a"); !errors.Is(err, mirror.ErrClosed) {
		t.Errorf("remove: expected ErrClosed, got %v", err)
	}
	for _, call := range svc.Calls()[1:] {
		t.Errorf("store should not be called after close, got %q", call)
	}
}

func TestConcurrentAdds(t *testing.T) {
	svc := testutil.NewFakeService()
	s := mirror.New(svc)
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Add(context.Background(), service.TaskPayload{Title: "x"}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if s.Len() != 20 {
		t.Errorf("expected 20 tasks, got %d", s.Len())
	}
	seen := make(map[string]bool)
	for _, task := range s.Tasks() {
		if seen[task.ID] {
			t.Errorf("duplicate id %s", task.ID)
		}
		seen[task.ID] = true
	}
}

func TestSubscribe_SlowSubscriberEndsOnLatest(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.NewID = testutil.SequentialIDs("t")
	s := mirror.New(svc)
	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	var (
		mu      sync.Mutex
		active  int
		overlap bool
		last    mirror.Snapshot
		blocked bool
	)
	s.Subscribe(func(snap mirror.Snapshot) {
		mu.Lock()
		active++
		if active > 1 {
			overlap = true
		}
		first := !blocked
		blocked = true
		mu.Unlock()

		if first {
			close(entered)
			<-release
		}

		mu.Lock()
		last = snap
		active--
		mu.Unlock()
	})

	done := make(chan error, 1)
	go func() {
		_, err := s.Add(ctx, service.TaskPayload{Title: "one"})
		done <- err
	}()
	<-entered

	// The second change lands while the first snapshot is still being delivered.
	if _, err := s.Add(ctx, service.TaskPayload{Title: "two"}); err != nil {
		t.Fatal(err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if overlap {
		t.Error("subscriber was called concurrently with itself")
	}
	if got := ids(last.Tasks); !reflect.DeepEqual(got, []string{"t1", "t2"}) {
		t.Errorf("expected last snapshot [t1 t2], got %v", got)
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 mirrored tasks, got %d", s.Len())
	}
}

func TestEdit_RacingEditsLaterResponseWins(t *testing.T) {
	svc, s := seeded(t, "a")
	ctx := context.Background()

	reached := make(chan struct{})
	release := make(chan struct{})
	svc.AfterUpdate = func(task service.Task) {
		if task.Title == "first" {
			close(reached)
			<-release
		}
	}

	first, second := "first", "second"
	done := make(chan error, 1)
	go func() {
		_, err := s.Edit(ctx, "a", service.TaskUpdate{Title: &first})
		done <- err
	}()
	<-reached

	if _, err := s.Edit(ctx, "a", service.TaskUpdate{Title: &second}); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Get("a"); got.Title != "second" {
		t.Fatalf("expected %q before the slow response, got %q", "second", got.Title)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	// The first edit's response arrived last, so it is what the mirror keeps.
	got, _ := s.Get("a")
	if got.Title != "first" {
		t.Errorf("expected later response %q to win, got %q", "first", got.Title)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 task, got %d", s.Len())
	}
}

func TestFetchAll_OverlappingFetchesLastCompletionWins(t *testing.T) {
	svc, s := seeded(t, "a")
	ctx := context.Background()

	reached := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	svc.BeforeList = func() {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(reached)
			<-release
		}
	}

	done := make(chan error, 1)
	go func() { done <- s.FetchAll(ctx) }()
	<-reached

	svc.AddTask("b", "task b", service.StatusTodo)
	if err := s.FetchAll(ctx); err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	if got := ids(s.Tasks()); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("expected the last completed fetch [b], got %v", got)
	}
	if s.Loading() {
		t.Error("expected loading false after both fetches")
	}
}
