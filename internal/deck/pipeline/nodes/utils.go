package nodes

// Graph node keys.
const (
	NodeRequestPreparer  = "RequestPreparer"
	NodeOutlineGenerator = "OutlineGenerator"
	NodeOutlineLoader    = "OutlineLoader"
	NodeSlideWriter      = "SlideWriter"
	NodeVisualDesigner   = "VisualDesigner"
	NodeDeckAssembler    = "DeckAssembler"
)
