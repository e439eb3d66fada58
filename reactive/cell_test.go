package reactive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_Cell_Get_And_Set(t *testing.T) {
	req := require.New(t)
	cell := NewCell(1)
	req.Equal(1, cell.Get())

	cell.Set(2)
	req.Equal(2, cell.Get())
}

func Test_Cell_Subscribe_Delivers_Current_Value_Immediately(t *testing.T) {
	req := require.New(t)
	cell := NewCell("hello")

	var got []string
	disposer := cell.Subscribe(func(v string) {
		got = append(got, v)
	})
	defer disposer()

	req.Equal([]string{"hello"}, got)
}

func Test_Cell_Pushes_On_Write_In_Registration_Order(t *testing.T) {
	req := require.New(t)
	cell := NewCell(0)

	var order []string
	d1 := cell.Subscribe(func(v int) { order = append(order, "first") })
	defer d1()
	d2 := cell.Subscribe(func(v int) { order = append(order, "second") })
	defer d2()

	order = nil
	cell.Set(1)
	req.Equal([]string{"first", "second"}, order)
}

func Test_Cell_Disposer_Detaches_And_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	cell := NewCell(0)

	count := 0
	disposer := cell.Subscribe(func(v int) { count++ })
	req.Equal(1, count)

	disposer()
	disposer() // second call must be a no-op
	cell.Set(42)
	req.Equal(1, count)
}

func Test_Debouncer_Emits_Only_The_Latest_Value(t *testing.T) {
	req := require.New(t)

	emitted := make(chan string, 4)
	debouncer := NewDebouncer(20*time.Millisecond, func(v string) {
		emitted <- v
	})
	defer debouncer.Stop()

	debouncer.Push("a")
	debouncer.Push("ab")
	debouncer.Push("abc")

	select {
	case v := <-emitted:
		req.Equal("abc", v)
	case <-time.After(time.Second):
		t.Fatal("debouncer never emitted")
	}

	// No further emissions from the superseded pushes.
	select {
	case v := <-emitted:
		t.Fatalf("unexpected extra emission %q", v)
	case <-time.After(60 * time.Millisecond):
	}
}

// A push landing exactly as the previous window expires must not make
// the fired callback emit on behalf of the new window: the new value is
// emitted once, after its own delay, never early and never twice.
func Test_Debouncer_Push_At_Window_Boundary_Emits_Once(t *testing.T) {
	req := require.New(t)

	for i := 0; i < 50; i++ {
		emitted := make(chan string, 4)
		debouncer := NewDebouncer(5*time.Millisecond, func(v string) {
			emitted <- v
		})

		debouncer.Push("a")
		time.Sleep(5 * time.Millisecond)
		debouncer.Push("b")

		var got []string
		deadline := time.After(100 * time.Millisecond)
	drain:
		for {
			select {
			case v := <-emitted:
				got = append(got, v)
			case <-deadline:
				break drain
			}
		}
		debouncer.Stop()

		// Depending on which side wins the expiry race, either "a" was
		// emitted at its boundary followed by "b" after its own window,
		// or "a" was superseded and only "b" fires.
		req.NotEmpty(got)
		req.Equal("b", got[len(got)-1])
		if len(got) == 2 {
			req.Equal([]string{"a", "b"}, got)
		}
		req.LessOrEqual(len(got), 2)
	}
}

func Test_Debouncer_Stop_Drops_Pending_Value(t *testing.T) {
	emitted := make(chan string, 1)
	debouncer := NewDebouncer(20*time.Millisecond, func(v string) {
		emitted <- v
	})

	debouncer.Push("dropped")
	debouncer.Stop()

	select {
	case v := <-emitted:
		t.Fatalf("unexpected emission %q after Stop", v)
	case <-time.After(60 * time.Millisecond):
	}
}
