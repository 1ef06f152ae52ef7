// Package maildir provides the on-disk side of message filing.
//
// Maildir is a widely-used format for storing email messages where each message
// is kept as a separate file. Subfolders live next to the root's own
// subdirectories as dot-prefixed maildirs of the same shape:
//
//	root/
//	├── new/     # Newly delivered messages
//	├── cur/     # Messages that have been seen
//	├── tmp/     # Temporary files during delivery
//	└── .Work/
//	    ├── new/
//	    ├── cur/
//	    └── tmp/
//
// Messages are moved between folders with rename(2), keeping their
// filenames, so other agents scanning the tree never observe a partial
// message. Subfolders are created in tmp/ and renamed into place, so a
// folder is either absent or complete.
//
// Scan a root maildir and read header fields with a Scanner:
//
//	root := maildir.New("/home/user/Maildir")
//	if err := root.Validate(); err != nil {
//	    return err
//	}
//	candidates, err := maildir.NewScanner(root).Candidates(ctx)
package maildir
