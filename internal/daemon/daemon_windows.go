//go:build windows

package daemon

// Windows runs the server under the service manager; PID files are a
// Unix convention and no-op here.

func WritePIDFile(path string) error { return nil }

func RemovePIDFile(path string) error { return nil }
