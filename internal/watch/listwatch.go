package watch

import (
	"context"

	"k8s.io/apimachinery/pkg/runtime"
	apiwatch "k8s.io/apimachinery/pkg/watch"
)

// ListerWatcher is the contract boundary between a pipeline and the
// cluster. List returns the current items together with the collection's
// resourceVersion; Watch opens a server-side stream starting at that
// version.
type ListerWatcher[T runtime.Object] interface {
	List(ctx context.Context) ([]T, string, error)
	Watch(ctx context.Context, resourceVersion string) (apiwatch.Interface, error)
}

// ListWatchFunc adapts two closures into a ListerWatcher, in the manner of
// client-go's cache.ListWatch. Typical construction over a typed client:
//
//	lw := ListWatchFunc[*corev1.Pod]{
//		ListFunc: func(ctx context.Context) ([]*corev1.Pod, string, error) {
//			list, err := client.CoreV1().Pods(ns).List(ctx, metav1.ListOptions{})
//			if err != nil {
//				return nil, "", err
//			}
//			items := make([]*corev1.Pod, 0, len(list.Items))
//			for i := range list.Items {
//				items = append(items, &list.Items[i])
//			}
//			return items, list.ResourceVersion, nil
//		},
//		WatchFunc: func(ctx context.Context, rv string) (watch.Interface, error) {
//			return client.CoreV1().Pods(ns).Watch(ctx, metav1.ListOptions{
//				ResourceVersion:     rv,
//				AllowWatchBookmarks: true,
//			})
//		},
//	}
type ListWatchFunc[T runtime.Object] struct {
	ListFunc  func(ctx context.Context) ([]T, string, error)
	WatchFunc func(ctx context.Context, resourceVersion string) (apiwatch.Interface, error)
}

var _ ListerWatcher[runtime.Object] = ListWatchFunc[runtime.Object]{}

// List implements ListerWatcher.
func (lw ListWatchFunc[T]) List(ctx context.Context) ([]T, string, error) {
	return lw.ListFunc(ctx)
}

// Watch implements ListerWatcher.
func (lw ListWatchFunc[T]) Watch(ctx context.Context, resourceVersion string) (apiwatch.Interface, error) {
	return lw.WatchFunc(ctx, resourceVersion)
}
