package queue

// CatalogChangedPayload 一次文件系统变更.
type CatalogChangedPayload struct {
	Root string `json:"root"`
	Path string `json:"path"`
	// Folder 受影响的作品目录名，根目录本身变化时为空
	Folder string `json:"folder,omitempty"`
	// Op fsnotify 操作名，如 CREATE、WRITE、REMOVE、RENAME、CHMOD
	Op string `json:"op"`
}

// CatalogWarmedPayload 一次目录预热的结果.
type CatalogWarmedPayload struct {
	Items    int    `json:"items"`
	Cached   bool   `json:"cached"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
	// Missing 根目录不存在，此时 Error 非空但不算任务失败
	Missing bool `json:"missing,omitempty"`
}
