// Package main 启动应用程序
package main

import (
	"os"

	"github.com/yeisme/folio/pkg/cmd"
)

//	@title			Folio API
//	@version		1.0
//	@description	Folio 从目录约定生成作品集目录，并提供渐进加载所需的目录与详情接口。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@contact.name	yeisme

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
