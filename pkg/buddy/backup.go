package buddy

// backupTree snapshots the status of every valid node into its backup
// field. It only recurses where status != Inactive, matching isValid.
func (h *Heap) backupTree(n node) {
	if !h.isValid(n) {
		return
	}

	h.setBackup(n, h.status(n))

	h.backupTree(h.nodeLeft(n))
	h.backupTree(h.nodeRight(n))
}

// restoreTree walks every node whose backup field is non-zero, copies it
// into status, and clears it. It descends unconditionally wherever backup
// is non-zero, even into a node whose current status is Inactive: a coalesce
// that happened after the matching backupTree call left such a node
// Inactive with a stale non-zero backup, and restoreTree must still visit
// its children to undo whatever backupTree recorded for them.
func (h *Heap) restoreTree(n node) {
	if !h.inTree(n) || h.backup(n) == Inactive {
		return
	}

	h.setStatus(n, h.backup(n))
	h.setBackup(n, Inactive)

	h.restoreTree(h.nodeLeft(n))
	h.restoreTree(h.nodeRight(n))
}

// clearBackupTree zeroes every non-zero backup field under n without
// touching status, following the same non-zero-backup descent as
// restoreTree. Used on a successful Realloc, whose new tree shape is
// already correct and only needs its backupTree snapshot discarded.
func (h *Heap) clearBackupTree(n node) {
	if !h.inTree(n) || h.backup(n) == Inactive {
		return
	}

	h.setBackup(n, Inactive)

	h.clearBackupTree(h.nodeLeft(n))
	h.clearBackupTree(h.nodeRight(n))
}
