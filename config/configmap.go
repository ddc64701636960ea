package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// DefaultConfigMapKey is the data key holding the rules document.
const DefaultConfigMapKey = "rules.yaml"

// LoadRulesFromConfigMap reads the rules document stored under key in a
// ConfigMap. The key's extension selects the parser.
func LoadRulesFromConfigMap(ctx context.Context, cli kubernetes.Interface, namespace, name, key string) (*Rules, error) {
	if key == "" {
		key = DefaultConfigMapKey
	}
	cm, err := cli.CoreV1().ConfigMaps(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		log.Error().Err(err).Str("namespace", namespace).Str("configMap", name).Msg("config: failed to get rules ConfigMap")
		return nil, err
	}
	data, ok := cm.Data[key]
	if !ok {
		return nil, fmt.Errorf("%w: configmap %s/%s has no key %q", ErrInvalidRules, namespace, name, key)
	}
	r, err := ParseRules([]byte(data), filepath.Ext(key))
	if err != nil {
		return nil, fmt.Errorf("configmap %s/%s: %w", namespace, name, err)
	}
	log.Info().Str("namespace", namespace).Str("configMap", name).Int("prefixes", len(r.Airspace)).Int("frequencies", len(r.Frequencies)).Msg("config: rules loaded from ConfigMap")
	return r, nil
}

// NewKubeClient returns a clientset using in-cluster config or local kubeconfig.
func NewKubeClient() (kubernetes.Interface, error) {
	// Try in-cluster config first
	if cfg, err := rest.InClusterConfig(); err == nil {
		return kubernetes.NewForConfig(cfg)
	}
	// Fallback to local kubeconfig
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	clientConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, &clientcmd.ConfigOverrides{})
	cfg, err := clientConfig.ClientConfig()
	if err != nil {
		return nil, err
	}
	return kubernetes.NewForConfig(cfg)
}
