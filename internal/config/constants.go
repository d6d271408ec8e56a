package config

// Default paths and names
const (
	// DefaultDataDir is the documents directory holding the database and downloaded files
	DefaultDataDir = "./data"

	// DatabaseName is the file name of the local store inside the data directory
	DatabaseName = "yazidi_library.db"

	// DefaultFilesBucket holds book content files on the hosted backend
	DefaultFilesBucket = "book-files"

	// DefaultCoversBucket holds cover images on the hosted backend
	DefaultCoversBucket = "book-covers"
)
