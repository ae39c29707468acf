package util

import (
	"fmt"
	"os/exec"
	"runtime"
)

// browserCommand 当前平台打开 url 的命令
func browserCommand(goos, url string) *exec.Cmd {
	switch goos {
	case "windows":
		// rundll32 比 cmd /c start 更稳定，且不会弹出控制台窗口
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		return exec.Command("open", url)
	default:
		return exec.Command("xdg-open", url)
	}
}

// OpenBrowser 用系统默认浏览器打开 url
func OpenBrowser(url string) error {
	return browserCommand(runtime.GOOS, url).Start()
}

// OpenBrowserWithFallback 默认方式失败时依次尝试常见浏览器
func OpenBrowserWithFallback(url string) error {
	err := OpenBrowser(url)
	if err == nil {
		return nil
	}

	switch runtime.GOOS {
	case "windows":
		return exec.Command("explorer", url).Start()
	case "linux":
		browsers := []string{"google-chrome", "firefox", "chromium-browser", "sensible-browser"}
		for _, browser := range browsers {
			if err := exec.Command(browser, url).Start(); err == nil {
				return nil
			}
		}
	}

	return err
}

// LocalURL 本机访问地址
func LocalURL(port int) string {
	return fmt.Sprintf("http://localhost:%d", port)
}
