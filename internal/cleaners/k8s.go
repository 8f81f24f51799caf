package cleaners

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/devsweep/devsweep/internal/cleaner"
	"github.com/devsweep/devsweep/internal/execx"
)

// Resources in these namespaces, or with these name prefixes, are never
// deleted no matter what discovery decided.
var (
	protectedNamespaces = map[string]bool{
		"kube-system":     true,
		"kube-public":     true,
		"kube-node-lease": true,
		"cert-manager":    true,
		"istio-system":    true,
		"monitoring":      true,
		"ingress-nginx":   true,
		"default":         true,
	}
	protectedPrefixes = []string{
		"kube-", "calico-", "istio-", "cert-manager-",
		"prometheus-", "grafana-", "default-token-",
	}
)

// K8s removes finished pods, scaled-down replicasets, and unreferenced
// ConfigMaps/Secrets from the current cluster context.
type K8s struct {
	run execx.Runner
}

func NewK8s(o Options) *K8s {
	return &K8s{run: o.Runner}
}

func (k *K8s) Name() string { return "k8s" }

func (k *K8s) Description() string {
	return "Removes unused Kubernetes resources (pods, replicasets, configmaps, secrets)"
}

func (k *K8s) CheckPrerequisites(ctx context.Context) error {
	if _, err := k.run.Run(ctx, 10*time.Second, "kubectl", "version", "--client"); err != nil {
		return fmt.Errorf("kubectl not available: %w", err)
	}
	out, err := k.run.Run(ctx, 15*time.Second, "kubectl", "get", "--raw", "/healthz")
	if err != nil {
		return fmt.Errorf("cluster not reachable: %w", err)
	}
	if !strings.Contains(out, "ok") {
		return fmt.Errorf("cluster health check returned %q", out)
	}
	return nil
}

func (k *K8s) Discover(ctx context.Context, thresholdDays int) ([]cleaner.Item, error) {
	cutoff := time.Now().AddDate(0, 0, -thresholdDays)

	var items []cleaner.Item
	items = append(items, k.finishedPods(ctx, cutoff)...)
	items = append(items, k.idleReplicaSets(ctx, cutoff)...)

	refCM, refSecret := k.references(ctx)
	items = append(items, k.unreferencedConfigMaps(ctx, cutoff, refCM)...)
	items = append(items, k.unreferencedSecrets(ctx, cutoff, refSecret)...)
	return items, nil
}

func (k *K8s) CleanItem(ctx context.Context, item cleaner.Item, dryRun bool) error {
	parts := cleaner.SplitID(item.Identity)
	if len(parts) != 2 {
		return fmt.Errorf("malformed resource identity %q", item.Identity)
	}
	namespace, name := parts[0], parts[1]

	if isProtected(namespace, name) {
		return fmt.Errorf("%s/%s is protected: %w", namespace, name, cleaner.ErrProtected)
	}
	if dryRun {
		return nil
	}

	args := []string{"delete"}
	switch item.Kind {
	case "pod":
		args = append(args, "pod", name, "-n", namespace, "--grace-period=30")
	case "replicaset":
		args = append(args, "rs", name, "-n", namespace, "--grace-period=30")
	case "configmap":
		args = append(args, "configmap", name, "-n", namespace)
	case "secret":
		args = append(args, "secret", name, "-n", namespace)
	default:
		return fmt.Errorf("unknown kubernetes resource kind %q", item.Kind)
	}
	_, err := k.run.Run(ctx, 30*time.Second, "kubectl", args...)
	return err
}

func (k *K8s) Describe(item cleaner.Item) string {
	parts := cleaner.SplitID(item.Identity)
	if len(parts) != 2 {
		return item.Identity
	}
	extra := ""
	if phase := item.Meta("phase"); phase != "" {
		extra = ", " + phase
	}
	return fmt.Sprintf("%s: %s/%s (%d days old%s)", item.Kind, parts[0], parts[1], item.AgeDays, extra)
}

func isProtected(namespace, name string) bool {
	if protectedNamespaces[namespace] {
		return true
	}
	for _, prefix := range protectedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

type k8sMetadata struct {
	Name              string `json:"name"`
	Namespace         string `json:"namespace"`
	CreationTimestamp string `json:"creationTimestamp"`
}

func (m k8sMetadata) created() (time.Time, bool) {
	t, err := time.Parse("2006-01-02T15:04:05Z", m.CreationTimestamp)
	return t, err == nil
}

func (k *K8s) finishedPods(ctx context.Context, cutoff time.Time) []cleaner.Item {
	out, err := k.run.Run(ctx, 60*time.Second, "kubectl", "get", "pods", "--all-namespaces", "-o", "json")
	if err != nil {
		log.Warn("listing pods failed", "err", err)
		return nil
	}
	return parseFinishedPods(out, cutoff)
}

func parseFinishedPods(out string, cutoff time.Time) []cleaner.Item {
	var list struct {
		Items []struct {
			Metadata k8sMetadata `json:"metadata"`
			Status   struct {
				Phase string `json:"phase"`
			} `json:"status"`
		} `json:"items"`
	}
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		log.Warn("parsing pod list failed", "err", err)
		return nil
	}

	var items []cleaner.Item
	for _, pod := range list.Items {
		if isProtected(pod.Metadata.Namespace, pod.Metadata.Name) {
			continue
		}
		if pod.Status.Phase != "Succeeded" && pod.Status.Phase != "Failed" {
			continue
		}
		created, ok := pod.Metadata.created()
		if !ok || created.After(cutoff) {
			continue
		}
		items = append(items, cleaner.Item{
			Kind:     "pod",
			Identity: cleaner.JoinID(pod.Metadata.Namespace, pod.Metadata.Name),
			AgeDays:  int(time.Since(created).Hours() / 24),
			Metadata: map[string]string{"phase": pod.Status.Phase},
		})
	}
	return items
}

func (k *K8s) idleReplicaSets(ctx context.Context, cutoff time.Time) []cleaner.Item {
	out, err := k.run.Run(ctx, 45*time.Second, "kubectl", "get", "rs", "--all-namespaces", "-o", "json")
	if err != nil {
		log.Warn("listing replicasets failed", "err", err)
		return nil
	}
	return parseIdleReplicaSets(out, cutoff)
}

func parseIdleReplicaSets(out string, cutoff time.Time) []cleaner.Item {
	var list struct {
		Items []struct {
			Metadata k8sMetadata `json:"metadata"`
			Spec     struct {
				Replicas *int `json:"replicas"`
			} `json:"spec"`
			Status struct {
				Replicas int `json:"replicas"`
			} `json:"status"`
		} `json:"items"`
	}
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		log.Warn("parsing replicaset list failed", "err", err)
		return nil
	}

	var items []cleaner.Item
	for _, rs := range list.Items {
		if isProtected(rs.Metadata.Namespace, rs.Metadata.Name) {
			continue
		}
		if rs.Spec.Replicas == nil || *rs.Spec.Replicas != 0 || rs.Status.Replicas != 0 {
			continue
		}
		created, ok := rs.Metadata.created()
		if !ok || created.After(cutoff) {
			continue
		}
		items = append(items, cleaner.Item{
			Kind:     "replicaset",
			Identity: cleaner.JoinID(rs.Metadata.Namespace, rs.Metadata.Name),
			AgeDays:  int(time.Since(created).Hours() / 24),
		})
	}
	return items
}

func (k *K8s) unreferencedConfigMaps(ctx context.Context, cutoff time.Time, referenced map[nsName]bool) []cleaner.Item {
	out, err := k.run.Run(ctx, 30*time.Second, "kubectl", "get", "configmaps", "--all-namespaces", "-o", "json")
	if err != nil {
		log.Warn("listing configmaps failed", "err", err)
		return nil
	}
	var list struct {
		Items []struct {
			Metadata k8sMetadata `json:"metadata"`
		} `json:"items"`
	}
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		log.Warn("parsing configmap list failed", "err", err)
		return nil
	}

	var items []cleaner.Item
	for _, cm := range list.Items {
		meta := cm.Metadata
		if isProtected(meta.Namespace, meta.Name) {
			continue
		}
		if referenced[nsName{meta.Namespace, meta.Name}] {
			continue
		}
		created, ok := meta.created()
		if !ok || created.After(cutoff) {
			continue
		}
		items = append(items, cleaner.Item{
			Kind:     "configmap",
			Identity: cleaner.JoinID(meta.Namespace, meta.Name),
			AgeDays:  int(time.Since(created).Hours() / 24),
		})
	}
	return items
}

func (k *K8s) unreferencedSecrets(ctx context.Context, cutoff time.Time, referenced map[nsName]bool) []cleaner.Item {
	out, err := k.run.Run(ctx, 30*time.Second, "kubectl", "get", "secrets", "--all-namespaces", "-o", "json")
	if err != nil {
		log.Warn("listing secrets failed", "err", err)
		return nil
	}
	var list struct {
		Items []struct {
			Metadata k8sMetadata `json:"metadata"`
			Type     string      `json:"type"`
		} `json:"items"`
	}
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		log.Warn("parsing secret list failed", "err", err)
		return nil
	}

	var items []cleaner.Item
	for _, sec := range list.Items {
		meta := sec.Metadata
		if isProtected(meta.Namespace, meta.Name) {
			continue
		}
		// Token secrets belong to service accounts, not to us.
		if sec.Type == "kubernetes.io/service-account-token" {
			continue
		}
		if referenced[nsName{meta.Namespace, meta.Name}] {
			continue
		}
		created, ok := meta.created()
		if !ok || created.After(cutoff) {
			continue
		}
		items = append(items, cleaner.Item{
			Kind:     "secret",
			Identity: cleaner.JoinID(meta.Namespace, meta.Name),
			AgeDays:  int(time.Since(created).Hours() / 24),
		})
	}
	return items
}

type nsName struct {
	Namespace string
	Name      string
}

var workloadKinds = []string{
	"pods", "deployments", "statefulsets", "daemonsets",
	"cronjobs", "jobs", "replicasets",
}

// references collects every ConfigMap and Secret referenced by workload specs:
// volumes, envFrom, and env valueFrom, across pods and pod-template
// controllers.
func (k *K8s) references(ctx context.Context) (configmaps, secrets map[nsName]bool) {
	configmaps = make(map[nsName]bool)
	secrets = make(map[nsName]bool)
	for _, kind := range workloadKinds {
		out, err := k.run.Run(ctx, 30*time.Second, "kubectl", "get", kind, "--all-namespaces", "-o", "json")
		if err != nil {
			log.Debug("listing workloads failed", "kind", kind, "err", err)
			continue
		}
		collectReferences(out, kind == "pods", configmaps, secrets)
	}
	return configmaps, secrets
}

type podSpec struct {
	Volumes []struct {
		ConfigMap *struct {
			Name string `json:"name"`
		} `json:"configMap"`
		Secret *struct {
			SecretName string `json:"secretName"`
		} `json:"secret"`
	} `json:"volumes"`
	Containers     []containerSpec `json:"containers"`
	InitContainers []containerSpec `json:"initContainers"`
}

type containerSpec struct {
	EnvFrom []struct {
		ConfigMapRef *struct {
			Name string `json:"name"`
		} `json:"configMapRef"`
		SecretRef *struct {
			Name string `json:"name"`
		} `json:"secretRef"`
	} `json:"envFrom"`
	Env []struct {
		ValueFrom *struct {
			ConfigMapKeyRef *struct {
				Name string `json:"name"`
			} `json:"configMapKeyRef"`
			SecretKeyRef *struct {
				Name string `json:"name"`
			} `json:"secretKeyRef"`
		} `json:"valueFrom"`
	} `json:"env"`
}

func collectReferences(out string, isPods bool, configmaps, secrets map[nsName]bool) {
	var list struct {
		Items []struct {
			Metadata k8sMetadata `json:"metadata"`
			Spec     struct {
				podSpec
				Template struct {
					Spec podSpec `json:"spec"`
				} `json:"template"`
			} `json:"spec"`
		} `json:"items"`
	}
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		log.Debug("parsing workload list failed", "err", err)
		return
	}

	for _, item := range list.Items {
		ns := item.Metadata.Namespace
		if ns == "" {
			ns = "default"
		}
		spec := item.Spec.podSpec
		if !isPods {
			spec = item.Spec.Template.Spec
		}

		for _, vol := range spec.Volumes {
			if vol.ConfigMap != nil && vol.ConfigMap.Name != "" {
				configmaps[nsName{ns, vol.ConfigMap.Name}] = true
			}
			if vol.Secret != nil && vol.Secret.SecretName != "" {
				secrets[nsName{ns, vol.Secret.SecretName}] = true
			}
		}
		for _, ctr := range append(spec.Containers, spec.InitContainers...) {
			for _, ef := range ctr.EnvFrom {
				if ef.ConfigMapRef != nil && ef.ConfigMapRef.Name != "" {
					configmaps[nsName{ns, ef.ConfigMapRef.Name}] = true
				}
				if ef.SecretRef != nil && ef.SecretRef.Name != "" {
					secrets[nsName{ns, ef.SecretRef.Name}] = true
				}
			}
			for _, env := range ctr.Env {
				if env.ValueFrom == nil {
					continue
				}
				if r := env.ValueFrom.ConfigMapKeyRef; r != nil && r.Name != "" {
					configmaps[nsName{ns, r.Name}] = true
				}
				if r := env.ValueFrom.SecretKeyRef; r != nil && r.Name != "" {
					secrets[nsName{ns, r.Name}] = true
				}
			}
		}
	}
}
