package contracts

type InputFlags struct {
	InputPath       string
	OutputDir       string
	ConfigPath      string
	Rasterizer      string
	Sizes           []int
	Workers         int
	IsolateFailures bool
	PreviewPDF      bool
	WriteOriginal   bool
}
