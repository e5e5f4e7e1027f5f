package scale

// Band divides a pixel range into equal bands, one per category.
type Band struct {
	Domain  []string
	Range   [2]float64
	Padding float64 // fraction of each step left empty, in [0, 1)

	index map[string]int
}

// NewBand builds a band scale over domain.
func NewBand(domain []string, r0, r1, padding float64) Band {
	b := Band{Domain: domain, Range: [2]float64{r0, r1}, Padding: padding}
	b.index = make(map[string]int, len(domain))
	for i, d := range domain {
		if _, dup := b.index[d]; !dup {
			b.index[d] = i
		}
	}
	return b
}

func (b Band) step() float64 {
	if len(b.Domain) == 0 {
		return 0
	}
	return (b.Range[1] - b.Range[0]) / float64(len(b.Domain))
}

// Bandwidth returns the drawn width of one band.
func (b Band) Bandwidth() float64 {
	return b.step() * (1 - b.Padding)
}

// Map returns the start of the band for key. ok is false for unknown keys.
func (b Band) Map(key string) (float64, bool) {
	i, ok := b.index[key]
	if !ok {
		return 0, false
	}
	return b.Range[0] + float64(i)*b.step() + b.step()*b.Padding/2, true
}

// Center returns the middle of the band for key.
func (b Band) Center(key string) (float64, bool) {
	x, ok := b.Map(key)
	return x + b.Bandwidth()/2, ok
}
