package content

import "sync"

// Join runs the given functions concurrently and waits for all of them
// to settle. Page handlers use it to fan out independent sub-fetches
// (author and similar articles, game and achievements); each function
// writes its own result and absorbs its own failure, so a failed
// sub-fetch yields its default instead of failing the page. Dependent
// fetches are sequenced by the caller, not expressed here.
func Join(fns ...func()) {
	var wg sync.WaitGroup
	wg.Add(len(fns))
	for _, fn := range fns {
		go func(f func()) {
			defer wg.Done()
			f()
		}(fn)
	}
	wg.Wait()
}
