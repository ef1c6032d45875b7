package task

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/haierkeys/cloudnav-sync-service/internal/app"
	pkgapp "github.com/haierkeys/cloudnav-sync-service/pkg/app"

	"github.com/bytedance/sonic"
	"golang.org/x/mod/semver"
)

// ShieldsJSON shields.io 版本徽章的 JSON 格式
type ShieldsJSON struct {
	Message string `json:"message"`
}

// CheckVersionTask 定期查询最新发布版本
type CheckVersionTask struct {
	app    *app.App
	url    string
	client *http.Client
}

func (t *CheckVersionTask) Name() string {
	return "check_version"
}

func (t *CheckVersionTask) Run(ctx context.Context) error {
	latest, err := t.fetchVersion(ctx)
	if err != nil {
		return err
	}
	if latest == "" {
		return nil
	}
	if !strings.HasPrefix(latest, "v") {
		latest = "v" + latest
	}
	if !semver.IsValid(latest) {
		return fmt.Errorf("invalid release version %q", latest)
	}

	t.app.SetCheckVersionInfo(pkgapp.CheckVersionInfo{VersionNewName: latest})
	return nil
}

func (t *CheckVersionTask) fetchVersion(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url, nil)
	if err != nil {
		return "", err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("release check: unexpected status %d", resp.StatusCode)
	}

	var sj ShieldsJSON
	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&sj); err != nil {
		return "", err
	}
	return strings.TrimSpace(sj.Message), nil
}

func (t *CheckVersionTask) LoopInterval() time.Duration {
	return 30 * time.Minute
}

func (t *CheckVersionTask) IsStartupRun() bool {
	return true
}

// NewCheckVersionTask release-check-url 为空时不启用
func NewCheckVersionTask(appContainer *app.App) (Task, error) {
	url := appContainer.Config().App.ReleaseCheckURL
	if url == "" {
		return nil, nil
	}
	return &CheckVersionTask{
		app:    appContainer,
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func init() {
	RegisterWithApp(NewCheckVersionTask)
}
