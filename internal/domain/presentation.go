package domain

// Presentation is how a single firing reaches the user.
type Presentation int

const (
	PresentationAmbient Presentation = iota
	PresentationFullScreen
)

func (p Presentation) String() string {
	if p == PresentationFullScreen {
		return "full_screen"
	}
	return "ambient"
}

// ChoosePresentation picks the reminder style for a firing. An active
// whitelisted app always suppresses the intrusive style.
func ChoosePresentation(whitelistActive, intrusive bool) Presentation {
	if intrusive && !whitelistActive {
		return PresentationFullScreen
	}
	return PresentationAmbient
}
