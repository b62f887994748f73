package pages

// Venue is a card on the bars page.
type Venue struct {
	Name  string
	Image string
	Link  string
}

type TeamMember struct {
	Name  string
	Role  string
	Image string
}

// VenueDetail backs the per-venue pages.
type VenueDetail struct {
	Title    string
	City     string
	Image    string
	Blurb    string
	Timings  string
	Specials []string
}

type Info struct {
	Heading  string
	Sections []InfoSection
}

type InfoSection struct {
	Title string
	Body  string
}

var instaImages = []string{
	"food.jpg", "drink.jpg", "pizza.jpg", "beerr.avif",
	"hand.png", "taco.png",
	"drum.png", "wine.png",
}

var chdBars = []Venue{
	{Name: "BREWESTATE", Image: "/images/brewestate.png", Link: "/api/brewestate"},
	{Name: "BOULEVARD", Image: "/images/boul.png", Link: "/api/boulevard"},
	{Name: "KALA-GHODA", Image: "/images/kalaghoda.jpg", Link: "/api/kalaghoda"},
	{Name: "MOBE", Image: "/images/mobe.png", Link: "/api/mobe"},
}

var ldhBars = []Venue{
	{Name: "PAARA - NIGHT CLUB", Image: "/images/paara2.jpg", Link: "/api/paara"},
	{Name: "ROMEO LANE", Image: "/images/romeolane.jpg", Link: "/api/romeo-ldh"},
	{Name: "LUNA - NIGHT CLUB", Image: "/images/luna2.avif", Link: "/api/luna-ldh"},
	{Name: "BAKLAVI - BAR & KITCHEN", Image: "/images/baklavi.jpg", Link: "/api/baklavi-ldh"},
}

var team = []TeamMember{
	{Name: "Ansh Vohra", Role: "Back-End Web Developer", Image: "/images/ansh.jpg"},
	{Name: "Akhil Handa", Role: "Back-End Web Developer", Image: "/images/akhil.jpg"},
	{Name: "Anmol Singh", Role: "Back-End Web Developer", Image: "/images/anmol11.jpg"},
}

var venues = map[string]VenueDetail{
	"brewestate": {
		Title: "Brewestate", City: "Chandigarh", Image: "/images/brewestate.png",
		Blurb:    "Microbrewery with house-brewed craft beer and a rooftop deck.",
		Timings:  "12 PM - 1 AM",
		Specials: []string{"Hefeweizen", "Apple cider", "Wood-fired pizza"},
	},
	"boulevard": {
		Title: "Boulevard", City: "Chandigarh", Image: "/images/boul.png",
		Blurb:    "Lounge bar with live music on weekends.",
		Timings:  "1 PM - 1 AM",
		Specials: []string{"Signature cocktails", "Mezze platter"},
	},
	"kalaghoda": {
		Title: "Kala Ghoda", City: "Chandigarh", Image: "/images/kalaghoda.jpg",
		Blurb:    "Cafe and bar with an art-house interior.",
		Timings:  "11 AM - 12 AM",
		Specials: []string{"Cold brew", "Bao", "Sangria"},
	},
	"mobe": {
		Title: "Mobe", City: "Chandigarh", Image: "/images/mobe.png",
		Blurb:    "Club nights with guest DJs every Friday and Saturday.",
		Timings:  "7 PM - 2 AM",
		Specials: []string{"Shots tower", "Sliders"},
	},
	"paara": {
		Title: "Paara - Night Club", City: "Ludhiana", Image: "/images/paara2.jpg",
		Blurb:    "The city's biggest dance floor.",
		Timings:  "8 PM - 2 AM",
		Specials: []string{"Bollywood nights", "Hookah lounge"},
	},
	"romeo-ldh": {
		Title: "Romeo Lane", City: "Ludhiana", Image: "/images/romeolane.jpg",
		Blurb:    "Fine dining with a long wine list.",
		Timings:  "12 PM - 12 AM",
		Specials: []string{"Wine flights", "Pasta"},
	},
	"luna-ldh": {
		Title: "Luna - Night Club", City: "Ludhiana", Image: "/images/luna2.avif",
		Blurb:    "Neon-lit club with themed nights.",
		Timings:  "8 PM - 2 AM",
		Specials: []string{"Ladies night", "Techno Thursdays"},
	},
	"baklavi-ldh": {
		Title: "Baklavi - Bar & Kitchen", City: "Ludhiana", Image: "/images/baklavi.jpg",
		Blurb:    "Mediterranean kitchen and bar.",
		Timings:  "12 PM - 1 AM",
		Specials: []string{"Baklava", "Kebabs", "Mojitos"},
	},
}

var info = map[string]Info{
	"faq": {
		Heading: "Frequently asked questions",
		Sections: []InfoSection{
			{Title: "Do I need an account?", Body: "Browsing this page does not, but venue pages and table reservations require you to log in."},
			{Title: "Is there a cover charge?", Body: "Cover charges are set by each venue and shown on its page."},
			{Title: "Can I cancel a reservation?", Body: "Contact the venue directly at least two hours before your booking."},
		},
	},
	"ourservices": {
		Heading: "Our services",
		Sections: []InfoSection{
			{Title: "Table reservations", Body: "Book a table at partner venues in Chandigarh and Ludhiana."},
			{Title: "Event listings", Body: "Find DJ nights, live music and themed parties."},
		},
	},
	"contactus": {
		Heading: "Contact us",
		Sections: []InfoSection{
			{Title: "Email", Body: "hello@nightout.example"},
			{Title: "Phone", Body: "+91 98765 43210"},
		},
	},
}
