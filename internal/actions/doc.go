// Package actions implements the server actions rewrite. Async functions
// marked with a "use server" directive become actions: the server layer
// registers them under a stable ID, the client layer replaces a "use server"
// module with references that call the server by that ID.
package actions
