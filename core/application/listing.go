package application

// Filter returns the applications matching qf, keeping their order.
func Filter(apps []Application, qf QueryFilter) []Application {
	filtered := make([]Application, 0, len(apps))
	for _, app := range apps {
		if qf.Match(app) {
			filtered = append(filtered, app)
		}
	}
	return filtered
}

// Years lists the distinct submission years in order of first appearance, prefixed with "All".
func Years(apps []Application) []string {
	years := []string{FilterAll}
	seen := make(map[string]bool)
	for _, app := range apps {
		y := yearOf(app.SubmittedAt)
		if y == "" || seen[y] {
			continue
		}
		seen[y] = true
		years = append(years, y)
	}
	return years
}

// Paginate returns the 1-based page of apps and the total number of pages.
// A page past the end is empty.
func Paginate(apps []Application, page, size int) ([]Application, int) {
	if size < 1 {
		size = PageSize
	}
	if page < 1 {
		page = 1
	}
	total := (len(apps) + size - 1) / size

	start := (page - 1) * size
	if start >= len(apps) {
		return []Application{}, total
	}
	end := start + size
	if end > len(apps) {
		end = len(apps)
	}
	return apps[start:end], total
}

// NewPage filters, paginates and decorates a backend listing.
func NewPage(listing Listing, qf QueryFilter) Page {
	filtered := Filter(listing.Applications, qf)
	apps, totalPages := Paginate(filtered, qf.Page, PageSize)
	return Page{
		Applications: apps,
		Stats:        listing.Stats,
		Years:        Years(listing.Applications),
		Page:         qf.Page,
		TotalPages:   totalPages,
		Total:        len(filtered),
	}
}
