package routing

// APIPrefix is the path family covered by the request-volume limiter.
const APIPrefix = "/api"

var venuePages = []string{
	"brewestate", "boulevard", "kalaghoda", "mobe",
	"paara", "romeo-ldh", "luna-ldh", "baklavi-ldh",
}

var infoPages = []string{"faq", "ourservices", "contactus"}

// Site is the page table of the venue site.
func Site() Table {
	t := Table{
		{ID: "login", Path: "/", ContentKey: "login", Browser: true},
		{ID: "register", Path: "/register", ContentKey: "register", Browser: true},
		protectedPage("dashboard"),
		protectedPage("bar"),
		protectedPage("reserve-table"),
		protectedPage("team"),
	}
	for _, p := range venuePages {
		t = append(t, protectedPage(p))
	}
	for _, p := range infoPages {
		t = append(t, Route{
			ID:                p,
			Path:              APIPrefix + "/" + p,
			ContentKey:        p,
			RequiresRateLimit: true,
			Browser:           true,
		})
	}
	return t
}

func protectedPage(name string) Route {
	return Route{
		ID:                name,
		Path:              APIPrefix + "/" + name,
		ContentKey:        name,
		RequiresAuth:      true,
		RequiresRateLimit: true,
		Browser:           true,
	}
}
