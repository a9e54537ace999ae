package watch_test

import (
	"sort"
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/giantswarm/kubert/internal/watch"
)

func pod(ns, name, rv string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Namespace:       ns,
			Name:            name,
			ResourceVersion: rv,
		},
	}
}

func apply(t *testing.T, s *watch.Store[*corev1.Pod], ev watch.Event[*corev1.Pod]) {
	t.Helper()
	if err := s.Apply(ev); err != nil {
		t.Fatalf("Apply(%v) = %v", ev.Type, err)
	}
}

func storeKeys(s *watch.Store[*corev1.Pod]) []string {
	keys := s.Keys()
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.String())
	}
	sort.Strings(out)
	return out
}

func TestStoreFold(t *testing.T) {
	t.Parallel()

	x := pod("default", "x", "1")
	y := pod("default", "y", "2")
	z := pod("default", "z", "3")

	s := watch.NewStore[*corev1.Pod]()
	apply(t, s, watch.Event[*corev1.Pod]{Type: watch.Applied, Object: x})
	apply(t, s, watch.Event[*corev1.Pod]{Type: watch.Applied, Object: y})

	// A restart supersedes all prior knowledge: x must be gone.
	apply(t, s, watch.Event[*corev1.Pod]{Type: watch.Restarted, Objects: []*corev1.Pod{y, z}})

	got := storeKeys(s)
	want := []string{"default/y", "default/z"}
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keys = %v, want %v", got, want)
		}
	}
}

func TestStoreAppliedUpserts(t *testing.T) {
	t.Parallel()

	s := watch.NewStore[*corev1.Pod]()
	apply(t, s, watch.Event[*corev1.Pod]{Type: watch.Applied, Object: pod("ns", "a", "1")})
	apply(t, s, watch.Event[*corev1.Pod]{Type: watch.Applied, Object: pod("ns", "a", "2")})

	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
	got, ok := s.Get(watch.Key{Namespace: "ns", Name: "a"})
	if !ok {
		t.Fatal("Get returned no object")
	}
	if got.ResourceVersion != "2" {
		t.Fatalf("resourceVersion = %q, want %q (replaced by the later apply)", got.ResourceVersion, "2")
	}
}

func TestStoreDeletedRemoves(t *testing.T) {
	t.Parallel()

	a := pod("ns", "a", "1")
	b := pod("ns", "b", "1")

	s := watch.NewStore[*corev1.Pod]()
	apply(t, s, watch.Event[*corev1.Pod]{Type: watch.Applied, Object: a})
	apply(t, s, watch.Event[*corev1.Pod]{Type: watch.Applied, Object: b})
	apply(t, s, watch.Event[*corev1.Pod]{Type: watch.Deleted, Object: a})

	if _, ok := s.Get(watch.Key{Namespace: "ns", Name: "a"}); ok {
		t.Fatal("deleted object still present")
	}
	if _, ok := s.Get(watch.Key{Namespace: "ns", Name: "b"}); !ok {
		t.Fatal("unrelated object removed")
	}
}

func TestStoreDeleteOfAbsentKeyIsNoOp(t *testing.T) {
	t.Parallel()

	s := watch.NewStore[*corev1.Pod]()
	apply(t, s, watch.Event[*corev1.Pod]{Type: watch.Deleted, Object: pod("ns", "ghost", "1")})
	if s.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", s.Len())
	}
}

func TestStoreListSnapshot(t *testing.T) {
	t.Parallel()

	s := watch.NewStore[*corev1.Pod]()
	apply(t, s, watch.Event[*corev1.Pod]{Type: watch.Applied, Object: pod("ns", "a", "1")})
	apply(t, s, watch.Event[*corev1.Pod]{Type: watch.Applied, Object: pod("other", "a", "1")})

	if got := len(s.List()); got != 2 {
		t.Fatalf("List() returned %d items, want 2", got)
	}
}
