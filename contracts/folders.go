package contracts

const (
	OriginalFileName = "original.png"
	PreviewFileName  = "preview.pdf"
)

type OutputFolder struct {
	Path    string
	Entries []string
}
