package naming

import "testing"

func TestLVMSnapshotName(t *testing.T) {
	tests := []struct {
		name     string
		machine  string
		target   string
		unixTime int64
		want     string
	}{
		{
			name:     "basic",
			machine:  "web01",
			target:   "vdb",
			unixTime: 1700000000,
			want:     "web01-vdb-snap-1700000000",
		},
		{
			name:     "machine with hyphens",
			machine:  "db-primary",
			target:   "sda",
			unixTime: 42,
			want:     "db-primary-sda-snap-42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LVMSnapshotName(tt.machine, tt.target, tt.unixTime)
			if got != tt.want {
				t.Errorf("LVMSnapshotName() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLVMSnapshotPath(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		snap   string
		want   string
	}{
		{
			name:   "volume group path",
			origin: "/dev/vg0/web01-vdb",
			snap:   "web01-vdb-snap-1",
			want:   "/dev/vg0/web01-vdb-snap-1",
		},
		{
			name:   "device mapper path",
			origin: "/dev/mapper/vg0-web01",
			snap:   "web01-vda-snap-1",
			want:   "/dev/mapper/web01-vda-snap-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LVMSnapshotPath(tt.origin, tt.snap)
			if got != tt.want {
				t.Errorf("LVMSnapshotPath() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExportFileName(t *testing.T) {
	got := ExportFileName("db1", "vda", "1000")
	want := "backup-db1-vda-1000.qcow"
	if got != want {
		t.Errorf("ExportFileName() = %v, want %v", got, want)
	}
}

func TestExportPath(t *testing.T) {
	tests := []struct {
		name string
		dir  string
		want string
	}{
		{name: "plain dir", dir: "/backup", want: "/backup/backup-db1-vda-1000.qcow"},
		{name: "trailing slash", dir: "/backup/", want: "/backup/backup-db1-vda-1000.qcow"},
		{name: "relative dir", dir: "out", want: "out/backup-db1-vda-1000.qcow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExportPath(tt.dir, "db1", "vda", "1000")
			if got != tt.want {
				t.Errorf("ExportPath() = %v, want %v", got, tt.want)
			}
		})
	}
}
