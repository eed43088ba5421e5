package interfaces

type ArchiveInterface interface {
	RestoreIndex() error
	Flush() error
	Close()
}
