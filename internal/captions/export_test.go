package captions

var (
	PickLanguage = pickLanguage
	Render       = render
)
