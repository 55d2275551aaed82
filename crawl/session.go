package crawl

import "github.com/fwojciec/sitemirror"

// session holds the state of one mirror run. It is owned by the goroutine
// running Mirror.Run; workers never touch it directly.
type session struct {
	frontier []string            // logical URLs in discovery order
	known    map[string]struct{} // frontier membership
	visited  map[string]struct{} // URLs mirrored or skipped
	order    []string            // visited URLs in marking order
	claims   map[string]claim    // keyed by destination file
	next     int                 // frontier index of the first unscanned URL
}

func newSession() *session {
	return &session{
		known:   make(map[string]struct{}),
		visited: make(map[string]struct{}),
		claims:  make(map[string]claim),
	}
}

// add inserts a logical URL into the frontier.
// Fragments are stripped first; URLs differing only by fragment are the same resource.
// Returns false if the URL was empty or already known.
func (s *session) add(logicalURL string) bool {
	u := sitemirror.StripFragment(logicalURL)
	if u == "" {
		return false
	}
	if _, ok := s.known[u]; ok {
		return false
	}
	s.known[u] = struct{}{}
	s.frontier = append(s.frontier, u)
	return true
}

// pending returns frontier members added since the previous call that are not yet visited.
func (s *session) pending() []string {
	var out []string
	for _, u := range s.frontier[s.next:] {
		if !s.isVisited(u) {
			out = append(out, u)
		}
	}
	s.next = len(s.frontier)
	return out
}

func (s *session) isVisited(logicalURL string) bool {
	_, ok := s.visited[logicalURL]
	return ok
}

// markVisited records logicalURL as processed. Marking is idempotent.
func (s *session) markVisited(logicalURL string) {
	if s.isVisited(logicalURL) {
		return
	}
	s.visited[logicalURL] = struct{}{}
	s.order = append(s.order, logicalURL)
}

// claim records which fetch URL owns a destination file. A collapsed claim
// was made by a URL whose query string was dropped from its destination.
type claim struct {
	fetchURL  string
	collapsed bool
}

// claim reserves a destination file. When the file is already claimed it
// returns the existing claim and false.
func (s *session) claim(file string, c claim) (claim, bool) {
	if owner, ok := s.claims[file]; ok {
		return owner, false
	}
	s.claims[file] = c
	return c, true
}
