// Package preflight validates the environment before the daemon starts
// watching: directory permissions, free disk space, quarantine writability,
// and the external text-extraction binary.
package preflight
