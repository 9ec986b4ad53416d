// Package libvirt provides a client wrapper for interacting with libvirt.
//
// This package wraps github.com/digitalocean/go-libvirt to provide:
//   - Connection management (connect, disconnect, ping)
//   - Host information for connection checks
//   - Domain and snapshot calls with fixed, flag-free signatures
//
// The Client type manages the connection lifecycle, while exposing the
// underlying *libvirt.Libvirt for packages that need direct access to the
// libvirt API.
//
// Connection Management:
//
// The package establishes connections to the local libvirt daemon via Unix socket:
//
//	client, err := libvirt.Connect("", 0)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	// Check connection
//	if err := client.Ping(); err != nil {
//	    return err
//	}
//
// Connection failures wrap errdefs.ErrConnection.
//
// Consumer-Side Interfaces:
//
// This package does not define interfaces. Instead, consumers (internal/vm,
// internal/snapshot) define their own LibvirtClient interfaces specifying
// only the operations they need. *Client satisfies these interfaces
// implicitly, enabling clean dependency injection:
//
//	conn := vm.NewConnection(client)
//
// See internal/vm/interfaces.go and internal/snapshot/snapshot.go.
package libvirt
