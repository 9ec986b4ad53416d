package vm

import (
	vmsnaplibvirt "github.com/jbweber/vmsnap/internal/libvirt"
	"github.com/jbweber/vmsnap/internal/lvm"
)

var (
	_ LibvirtClient     = (*vmsnaplibvirt.Client)(nil)
	_ LibvirtClient     = (*mockLibvirtClient)(nil)
	_ volumeSnapshotter = (*lvm.Client)(nil)
	_ volumeSnapshotter = (*mockVolumeSnapshotter)(nil)
)
