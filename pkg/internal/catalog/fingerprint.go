package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint 计算作品集的内容指纹：根目录与每个子目录的修改时间，以及描述文件的修改时间与大小.
// 任何会影响目录结果的增删改都会改变指纹，上层缓存以此作为 key 的一部分.
func (r *Resolver) Fingerprint(ctx context.Context) (string, error) {
	info, err := os.Stat(r.opts.Root)
	if err != nil || !info.IsDir() {
		return "", ErrCollectionMissing
	}

	folders, err := r.folders()
	if err != nil {
		return "", err
	}

	d := xxhash.New()
	_, _ = d.WriteString(r.opts.Root)
	_, _ = d.WriteString(strconv.FormatInt(info.ModTime().UnixNano(), 36))

	for _, name := range folders {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		_, _ = d.WriteString("|" + name)

		if fi, err := os.Stat(filepath.Join(r.opts.Root, name)); err == nil {
			_, _ = d.WriteString(":" + strconv.FormatInt(fi.ModTime().UnixNano(), 36))
		}

		if fi, err := os.Stat(filepath.Join(r.opts.Root, name, r.opts.Descriptor)); err == nil {
			_, _ = d.WriteString(":" + strconv.FormatInt(fi.ModTime().UnixNano(), 36) + ":" + strconv.FormatInt(fi.Size(), 36))
		} else {
			_, _ = d.WriteString(":-")
		}
	}

	return strconv.FormatUint(d.Sum64(), 16), nil
}
