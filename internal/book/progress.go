package book

import "readsync/pkg/models"

// ApplyCreateDefaults fills status and current_page when a new book omits them
// and clamps current_page to the submitted page count.
func ApplyCreateDefaults(f *Fields) {
	if !f.Status.Set || f.Status.Null {
		f.Status = Some(models.StatusPlanned)
	}
	if !f.CurrentPage.Set || f.CurrentPage.Null {
		f.CurrentPage = Some(0)
	}
	f.CurrentPage = Some(Clamp(f.CurrentPage.Value, f.Pages.Ptr()))
}

// Clamp bounds current to [0, pages], or to [0, ∞) when pages is unknown.
func Clamp(current int, pages *int) int {
	if current < 0 {
		current = 0
	}
	if pages != nil && *pages >= 0 && current > *pages {
		current = *pages
	}
	return current
}

// TouchesProgress reports whether an update needs current_page recomputed.
func TouchesProgress(f Fields) bool {
	return f.CurrentPage.Set || f.Pages.Set
}
