package db

// timeLayout is how instants are stored. modernc.org/sqlite does not store
// time.Time in a format SQLite's date functions understand, so every instant
// is written as a UTC string.
const timeLayout = "2006-01-02 15:04:05"
