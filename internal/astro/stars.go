package astro

import "time"

// Star is a fixed entry of the bright-star catalog.
type Star struct {
	Name          string  `json:"name"`
	Mag           float64 `json:"magnitude"` // apparent visual magnitude (lower = brighter)
	Constellation string  `json:"constellation"`
	RAHours       float64 `json:"ra_hours"` // right ascension in hours (J2000)
	DecDeg        float64 `json:"dec_deg"`  // declination in degrees (J2000)
}

// RAdeg returns the right ascension in degrees.
func (s Star) RAdeg() float64 {
	return s.RAHours * 15
}

// Horizontal returns the star's position in the observer's sky at t.
func (s Star) Horizontal(obs Observer, t time.Time) SkyCoord {
	return HorizontalAt(s.RAdeg(), s.DecDeg, obs, t)
}

// StarCatalog holds the stars considered for naked-eye visibility.
type StarCatalog struct {
	Stars []Star
}

// DefaultStarCatalog returns the curated catalog of the brightest stars,
// ordered brightest first. The slice is a fresh copy on every call.
func DefaultStarCatalog() StarCatalog {
	stars := make([]Star, len(defaultStars))
	copy(stars, defaultStars)
	return StarCatalog{Stars: stars}
}

// Lookup returns the star with the given name.
func (c StarCatalog) Lookup(name string) (Star, bool) {
	for _, s := range c.Stars {
		if s.Name == name {
			return s, true
		}
	}
	return Star{}, false
}

var defaultStars = []Star{
	{"Sirius", -1.46, "Canis Major", 6.7525, -16.7161},
	{"Canopus", -0.74, "Carina", 6.3992, -52.6956},
	{"Arcturus", -0.05, "Boötes", 14.2611, 19.1824},
	{"Vega", 0.03, "Lyra", 18.6156, 38.7836},
	{"Capella", 0.08, "Auriga", 5.2781, 45.9980},
	{"Rigel", 0.13, "Orion", 5.2422, -8.2016},
	{"Procyon", 0.34, "Canis Minor", 7.6550, 5.2249},
	{"Betelgeuse", 0.42, "Orion", 5.9194, 7.4070},
	{"Achernar", 0.46, "Eridanus", 1.6286, -57.2367},
	{"Hadar", 0.61, "Centaurus", 14.0639, -60.3731},
	{"Altair", 0.76, "Aquila", 19.8464, 8.8683},
	{"Acrux", 0.76, "Crux", 12.4433, -63.0991},
	{"Aldebaran", 0.85, "Taurus", 4.5987, 16.5093},
	{"Antares", 0.96, "Scorpius", 16.4901, -26.4320},
	{"Spica", 0.97, "Virgo", 13.4199, -11.1613},
	{"Pollux", 1.14, "Gemini", 7.7553, 28.0262},
	{"Fomalhaut", 1.16, "Piscis Austrinus", 22.9608, -29.6222},
	{"Deneb", 1.25, "Cygnus", 20.6905, 45.2803},
	{"Mimosa", 1.25, "Crux", 12.7953, -59.6888},
	{"Regulus", 1.35, "Leo", 10.1395, 11.9672},
	{"Adhara", 1.50, "Canis Major", 6.9771, -28.9721},
	{"Castor", 1.58, "Gemini", 7.5767, 31.8883},
	{"Shaula", 1.62, "Scorpius", 17.5602, -37.1038},
	{"Gacrux", 1.63, "Crux", 12.5194, -57.1132},
	{"Bellatrix", 1.64, "Orion", 5.4189, 6.3497},
	{"Elnath", 1.65, "Taurus", 5.4382, 28.6074},
	{"Miaplacidus", 1.68, "Carina", 9.2200, -69.7172},
	{"Alnilam", 1.69, "Orion", 5.6036, -1.2019},
	{"Alnair", 1.74, "Grus", 22.1372, -46.9610},
	{"Alnitak", 1.77, "Orion", 5.6793, -1.9426},
	{"Alioth", 1.77, "Ursa Major", 12.9005, 55.9598},
	{"Dubhe", 1.79, "Ursa Major", 11.0621, 61.7510},
	{"Mirfak", 1.79, "Perseus", 3.4054, 49.8612},
	{"Wezen", 1.84, "Canis Major", 7.1399, -26.3932},
	{"Alkaid", 1.86, "Ursa Major", 13.7923, 49.3133},
	{"Polaris", 1.98, "Ursa Minor", 2.5302, 89.2641},
	{"Alphard", 1.99, "Hydra", 9.4598, -8.6586},
	{"Hamal", 2.00, "Aries", 2.1196, 23.4624},
	{"Mizar", 2.04, "Ursa Major", 13.3988, 54.9254},
	{"Nunki", 2.05, "Sagittarius", 18.9211, -26.2967},
	{"Alpheratz", 2.06, "Andromeda", 0.1398, 29.0904},
	{"Rasalhague", 2.08, "Ophiuchus", 17.5822, 12.5600},
	{"Algol", 2.12, "Perseus", 3.1361, 40.9556},
	{"Denebola", 2.13, "Leo", 11.8177, 14.5720},
}
